package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var audioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}

// FindLatestAudio returns the most recently modified audio file in dir.
func FindLatestAudio(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		isAudio := false
		for _, ext := range audioExtensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				isAudio = true
				break
			}
		}
		if !isAudio {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no audio files found in %s", dir)
	}

	return latestFile, nil
}

func ffprobe(ctx context.Context, path string, args ...string) (string, error) {
	full := append([]string{"-v", "error"}, args...)
	full = append(full, "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := exec.CommandContext(ctx, "ffprobe", full...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// GetAudioSampleRate returns the sample rate of the first audio stream.
func GetAudioSampleRate(ctx context.Context, path string) (int, error) {
	out, err := ffprobe(ctx, path, "-select_streams", "a:0", "-show_entries", "stream=sample_rate")
	if err != nil {
		return 0, err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strconv.Atoi(strings.TrimSpace(line))
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one.
func GetBestH264Encoder() string {
	// Priority: VideoToolbox (macOS), NVENC (NVIDIA), then software libx264.
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// CheckFilterSupport reports whether the local ffmpeg build has filter.
func CheckFilterSupport(filter string) bool {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	return hasFilter(string(out), filter)
}

func hasFilter(listing, filter string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == filter {
			return true
		}
	}
	return false
}

// DefaultQuality is the quality setting each encoder is tuned for.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
