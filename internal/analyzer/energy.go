// Package analyzer turns audio into one loudness value per video frame.
package analyzer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ivlev/lipsync2video/internal/audio"
)

// Extractor maps a waveform to per-frame energies at the given fps.
// A nil waveform yields a silent sequence of fallback length.
type Extractor interface {
	Extract(w *audio.Waveform, fps int) []float64
}

// FrameCount is the number of whole video frames in duration seconds.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration * float64(fps)))
}

// ChunkLength is the number of samples covered by one video frame.
func ChunkLength(sampleRate, fps int) int {
	n := int(math.Round(float64(sampleRate) / float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// ChunkExtractor splits the waveform into non-overlapping frame-sized chunks
// and reduces each one to a scalar.
type ChunkExtractor struct {
	FallbackDuration float64 // seconds of silence emitted when audio is absent
	Reduce           func(chunk []float64) float64
}

// Extract implements Extractor. Chunks starting past the end of the signal
// are 0; the last chunk may be shorter than the others.
func (e *ChunkExtractor) Extract(w *audio.Waveform, fps int) []float64 {
	if w == nil || w.SampleRate <= 0 {
		return make([]float64, FrameCount(e.FallbackDuration, fps))
	}

	frameCount := FrameCount(w.Duration(), fps)
	chunkLen := ChunkLength(w.SampleRate, fps)
	energies := make([]float64, frameCount)

	for i := range energies {
		start := i * chunkLen
		if start >= len(w.Samples) {
			continue
		}
		end := start + chunkLen
		if end > len(w.Samples) {
			end = len(w.Samples)
		}
		energies[i] = e.Reduce(w.Samples[start:end])
	}
	return energies
}

// MeanAbs is the mean absolute amplitude of chunk.
func MeanAbs(chunk []float64) float64 {
	if len(chunk) == 0 {
		return 0
	}
	abs := make([]float64, len(chunk))
	for i, s := range chunk {
		abs[i] = math.Abs(s)
	}
	return stat.Mean(abs, nil)
}

// RMS is the root mean square amplitude of chunk.
func RMS(chunk []float64) float64 {
	if len(chunk) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(chunk, chunk) / float64(len(chunk)))
}

func NewMeanAbsExtractor(fallbackDuration float64) *ChunkExtractor {
	return &ChunkExtractor{FallbackDuration: fallbackDuration, Reduce: MeanAbs}
}

func NewRMSExtractor(fallbackDuration float64) *ChunkExtractor {
	return &ChunkExtractor{FallbackDuration: fallbackDuration, Reduce: RMS}
}
