package director

import (
	"fmt"

	"github.com/ivlev/lipsync2video/internal/viseme"
)

const SequenceVersion = "1.0"

// Sequence is the per-frame mouth timeline of one clip.
type Sequence struct {
	Version    string     `yaml:"version"`
	FPS        int        `yaml:"fps"`
	FrameCount int        `yaml:"frame_count"`
	Thresholds Thresholds `yaml:"thresholds"`
	Cues       []Cue      `yaml:"cues"`
}

// Cue holds one label for a run of consecutive frames.
type Cue struct {
	Start  int          `yaml:"start"`  // first frame index
	Frames int          `yaml:"frames"` // run length
	Label  viseme.Label `yaml:"label"`
}

// NewSequence run-length encodes labels.
func NewSequence(labels []viseme.Label, fps int, th Thresholds) *Sequence {
	seq := &Sequence{
		Version:    SequenceVersion,
		FPS:        fps,
		FrameCount: len(labels),
		Thresholds: th,
	}
	for i, l := range labels {
		if n := len(seq.Cues); n > 0 && seq.Cues[n-1].Label == l {
			seq.Cues[n-1].Frames++
			continue
		}
		seq.Cues = append(seq.Cues, Cue{Start: i, Frames: 1, Label: l})
	}
	return seq
}

// Labels expands the cues into one label per frame.
func (s *Sequence) Labels() []viseme.Label {
	labels := make([]viseme.Label, 0, s.FrameCount)
	for _, c := range s.Cues {
		for i := 0; i < c.Frames; i++ {
			labels = append(labels, c.Label)
		}
	}
	return labels
}

// Counts returns how many frames use each label.
func (s *Sequence) Counts() map[viseme.Label]int {
	counts := make(map[viseme.Label]int)
	for _, c := range s.Cues {
		counts[c.Label] += c.Frames
	}
	return counts
}

// Validate checks that cues are contiguous and cover FrameCount frames.
func (s *Sequence) Validate() error {
	next := 0
	for i, c := range s.Cues {
		if c.Start != next {
			return fmt.Errorf("cue %d starts at frame %d, expected %d", i, c.Start, next)
		}
		if c.Frames <= 0 {
			return fmt.Errorf("cue %d has non-positive length %d", i, c.Frames)
		}
		if !c.Label.Valid() {
			return fmt.Errorf("cue %d has invalid label", i)
		}
		next += c.Frames
	}
	if next != s.FrameCount {
		return fmt.Errorf("cues cover %d frames, frame_count is %d", next, s.FrameCount)
	}
	return nil
}

// Fit returns exactly frameCount labels: extra frames are dropped and
// missing ones are closed. The second result reports whether anything
// changed.
func (s *Sequence) Fit(frameCount int) ([]viseme.Label, bool) {
	labels := s.Labels()
	if len(labels) == frameCount {
		return labels, false
	}
	if len(labels) > frameCount {
		return labels[:frameCount], true
	}
	for len(labels) < frameCount {
		labels = append(labels, viseme.Closed)
	}
	return labels, true
}
