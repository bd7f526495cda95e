// Package audio loads sound files into mono float waveforms.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Waveform is a decoded mono signal. Samples are in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the signal in seconds.
func (w *Waveform) Duration() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Prober reports the native sample rate of a non-WAV file.
type Prober func(ctx context.Context, path string) (sampleRate int, err error)

// Loader decodes audio files. WAV is decoded in-process; other formats go
// through Decode, which defaults to an ffmpeg pipe.
type Loader struct {
	Probe  Prober
	Decode func(ctx context.Context, path string, sampleRate int) ([]float64, error)
}

// Load opens path and returns its waveform. A missing file yields an error
// wrapping os.ErrNotExist.
func (l *Loader) Load(ctx context.Context, path string) (*Waveform, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		w, err := ReadWAV(path)
		if err == nil {
			return w, nil
		}
		if l.Probe == nil {
			return nil, err
		}
		// go-audio only reads integer PCM; float WAVs go through ffmpeg.
	}

	if l.Probe == nil {
		return nil, fmt.Errorf("audio: no decoder for %s", filepath.Ext(path))
	}
	sr, err := l.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("audio: probe %s: %w", path, err)
	}
	if sr <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d for %s", sr, path)
	}
	decode := l.Decode
	if decode == nil {
		decode = DecodeFFmpeg
	}
	samples, err := decode(ctx, path, sr)
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	return &Waveform{Samples: samples, SampleRate: sr}, nil
}

// ReadWAV decodes a PCM WAV file, averaging channels down to mono.
func ReadWAV(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("audio: invalid WAV file %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	if decoder.SampleRate == 0 {
		return nil, fmt.Errorf("audio: %s has no sample rate", path)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		channels = 1
	}
	scale := float64(goaudio.IntMaxSignedValue(int(decoder.BitDepth)))
	if scale <= 0 {
		return nil, fmt.Errorf("audio: unsupported bit depth %d", decoder.BitDepth)
	}

	// 8-bit PCM is unsigned with silence at 128.
	offset := 0
	if decoder.BitDepth == 8 {
		offset = 128
	}

	return &Waveform{
		Samples:    downmix(buf.Data, channels, offset, scale),
		SampleRate: int(decoder.SampleRate),
	}, nil
}

func downmix(data []int, channels, offset int, scale float64) []float64 {
	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c] - offset)
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}

// DecodeFFmpeg asks ffmpeg for mono 64-bit float PCM at the native rate.
func DecodeFFmpeg(ctx context.Context, path string, sampleRate int) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "f64le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	samples, readErr := readFloat64LE(stdout)
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg wait error: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	return samples, nil
}

func readFloat64LE(r io.Reader) ([]float64, error) {
	var samples []float64
	buf := make([]byte, 8*4096)
	var carry int
	for {
		n, err := r.Read(buf[carry:])
		n += carry
		whole := n - n%8
		for i := 0; i < whole; i += 8 {
			samples = append(samples, math.Float64frombits(binary.LittleEndian.Uint64(buf[i:])))
		}
		carry = copy(buf, buf[whole:n])
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
