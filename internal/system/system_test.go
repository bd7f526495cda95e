package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestAudio(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.wav", "b.mp3", "c.txt", "d.flac"}
	base := time.Now().Add(-time.Hour)
	for i, name := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		mod := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	// Newest file overall is not audio.
	txt := filepath.Join(dir, "c.txt")
	late := time.Now()
	require.NoError(t, os.Chtimes(txt, late, late))

	latest, err := FindLatestAudio(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "d.flac"), latest)
}

func TestFindLatestAudioEmpty(t *testing.T) {
	_, err := FindLatestAudio(t.TempDir())
	assert.Error(t, err)

	_, err = FindLatestAudio(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPickEncoder(t *testing.T) {
	assert.Equal(t, "h264_nvenc", pickEncoder(" V....D h264_nvenc  NVIDIA NVENC H.264 encoder"))
	assert.Equal(t, "h264_videotoolbox", pickEncoder("h264_nvenc\nh264_videotoolbox"))
	assert.Equal(t, "libx264", pickEncoder(" V....D libx264 x264"))
}

func TestDefaultQuality(t *testing.T) {
	assert.Equal(t, 75, DefaultQuality("h264_videotoolbox"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestFrameBatchSize(t *testing.T) {
	const frame = 1000

	tests := []struct {
		name      string
		count     int
		workers   int
		available uint64
		want      int
	}{
		{"whole clip fits", 90, 4, 4 * 90 * frame, 90},
		{"capped by budget", 1000, 2, 4 * 100 * frame, 100},
		{"never below per-worker floor", 1000, 8, 4 * 10 * frame, 32},
		{"floor limited by clip", 5, 8, 4 * frame, 5},
		{"unknown memory", 1000, 2, 0, 8},
		{"no frames", 0, 2, 1 << 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameBatchSize(frame, tt.count, tt.workers, tt.available))
		})
	}
}

func TestBufferPoolReturnsRequestedLength(t *testing.T) {
	p := NewBufferPool()
	buf := p.Get(12)
	assert.Len(t, buf, 12)
	p.Put(buf)

	again := p.Get(12)
	assert.Len(t, again, 12)

	// Unknown sizes are dropped rather than mixed into another bucket.
	p.Put(make([]byte, 7))
	assert.Len(t, p.Get(7), 7)
}

func TestHasFilter(t *testing.T) {
	listing := `Filters:
  T.. = Timeline support
 ------
 T.. drawtext          V->V       Draw text on top of video frames using libfreetype library.
 ... pad               V->V       Pad the input video.
`
	assert.True(t, hasFilter(listing, "drawtext"))
	assert.True(t, hasFilter(listing, "pad"))
	assert.False(t, hasFilter(listing, "zoompan"))
}
