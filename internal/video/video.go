// Package video streams rendered frames into ffmpeg and muxes the result
// with the source audio.
package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ivlev/lipsync2video/internal/config"
)

// FrameWriter accepts packed RGB24 frames in display order.
type FrameWriter interface {
	WriteFrame(pix []byte) error
	// Close flushes the stream and waits for the encoder to finish.
	Close() error
}

type VideoEncoder interface {
	Open(ctx context.Context, videoPath string, params config.EncodeParams) (FrameWriter, error)
	Mux(ctx context.Context, videoPath, audioPath, finalPath string) error
}

type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg".
	Binary string
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegEncoder) Open(ctx context.Context, videoPath string, params config.EncodeParams) (FrameWriter, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("video: invalid frame size %dx%d", params.Width, params.Height)
	}
	if params.FPS <= 0 {
		return nil, fmt.Errorf("video: invalid fps %d", params.FPS)
	}

	cmd := exec.CommandContext(ctx, e.binary(), buildEncodeArgs(videoPath, params)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	w := &ffmpegWriter{
		cmd:       cmd,
		stdin:     stdin,
		frameSize: params.Width * params.Height * 3,
	}
	cmd.Stderr = &w.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return w, nil
}

func buildEncodeArgs(videoPath string, p config.EncodeParams) []string {
	fps := strconv.Itoa(p.FPS)
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fps,
		"-i", "-",
	}
	if p.Filter != "" {
		args = append(args, "-vf", p.Filter)
	}

	encoder := p.VideoEncoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args,
		"-r", fps,
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	)
	args = append(args, qualityArgs(encoder, p.Quality)...)
	return append(args, videoPath)
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some builds; use a bitrate instead.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

type ffmpegWriter struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    bytes.Buffer
	frameSize int
	closed    bool
}

func (w *ffmpegWriter) WriteFrame(pix []byte) error {
	if w.closed {
		return fmt.Errorf("video: write after close")
	}
	if len(pix) != w.frameSize {
		return fmt.Errorf("video: frame is %d bytes, want %d", len(pix), w.frameSize)
	}
	if _, err := w.stdin.Write(pix); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, tail(w.stderr.String(), 2048))
	}
	return nil
}

// Mux copies the video stream and adds audioPath as AAC, stopping at the
// shorter of the two.
func (e *FFmpegEncoder) Mux(ctx context.Context, videoPath, audioPath, finalPath string) error {
	cmd := exec.CommandContext(ctx, e.binary(), buildMuxArgs(videoPath, audioPath, finalPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %v, output: %s", err, tail(string(out), 2048))
	}
	return nil
}

func buildMuxArgs(videoPath, audioPath, finalPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		finalPath,
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
