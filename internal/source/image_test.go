package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 128})
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return p
}

func TestLoadImagePNG(t *testing.T) {
	p := writePNG(t, t.TempDir(), "mouth.png", 6, 4)

	img, err := LoadImage(p, 72)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())

	r, _, _, a := img.At(1, 1).RGBA()
	assert.NotZero(t, r)
	assert.Equal(t, uint32(128*0x101), a)
}

func TestImageSourceSinglePage(t *testing.T) {
	p := writePNG(t, t.TempDir(), "char.png", 10, 3)

	src, err := Open(p)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 1, src.PageCount())
	img, err := src.RenderPage(0, 72)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 3), img.Bounds())

	_, err = src.RenderPage(1, 72)
	assert.Error(t, err)
}

func TestLoadImageMissing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "gone.png"), 72)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0644))

	_, err := LoadImage(p, 72)
	assert.Error(t, err)
}

func TestImageSourceRejectsDirectory(t *testing.T) {
	_, err := NewImageSource(t.TempDir())
	assert.Error(t, err)
}
