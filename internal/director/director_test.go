package director

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/lipsync2video/internal/viseme"
)

var fullSet = viseme.NewSet(viseme.All()...)

func TestClassifyQuartileExample(t *testing.T) {
	d := NewDirector(30, fullSet)
	energies := []float64{0.01, 0.02, 0.05, 0.09}

	labels, th := d.Classify(energies)

	assert.InDelta(t, 0.0175, th.T1, 1e-12)
	assert.InDelta(t, 0.035, th.T2, 1e-12)
	assert.InDelta(t, 0.06, th.T3, 1e-12)
	assert.Equal(t, []viseme.Label{viseme.Closed, viseme.SmallOpen, viseme.MidOpen, viseme.WideOpen}, labels)
}

func TestClassifyAllZeroIsClosed(t *testing.T) {
	d := NewDirector(30, fullSet)
	labels, _ := d.Classify(make([]float64, 90))

	require.Len(t, labels, 90)
	for _, l := range labels {
		assert.Equal(t, viseme.Closed, l)
	}
}

func TestClassifyBoundaryGoesToHigherBand(t *testing.T) {
	d := NewDirector(30, fullSet)
	// Five values: quartiles land exactly on elements 1, 2 and 3.
	energies := []float64{0.0, 0.1, 0.2, 0.3, 0.4}

	labels, th := d.Classify(energies)

	assert.Equal(t, 0.1, th.T1)
	assert.Equal(t, 0.2, th.T2)
	assert.Equal(t, 0.3, th.T3)
	assert.Equal(t, []viseme.Label{
		viseme.Closed, viseme.SmallOpen, viseme.MidOpen, viseme.WideOpen, viseme.WideOpen,
	}, labels)
}

func TestClassifyWideFallbackChain(t *testing.T) {
	energies := []float64{0.01, 0.02, 0.05, 0.09}

	tests := []struct {
		name      string
		available viseme.Set
		want      viseme.Label
	}{
		{"open available", fullSet, viseme.WideOpen},
		{"rounded only", viseme.NewSet(viseme.Closed, viseme.Rounded, viseme.MidOpen), viseme.Rounded},
		{"neither", viseme.NewSet(viseme.Closed, viseme.MidOpen), viseme.MidOpen},
		{"empty set", 0, viseme.MidOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, _ := NewDirector(30, tt.available).Classify(energies)
			assert.Equal(t, tt.want, labels[3])
		})
	}
}

func TestClassifyPropertiesOnRandomInput(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	d := NewDirector(30, fullSet)

	for trial := 0; trial < 50; trial++ {
		energies := make([]float64, 1+r.Intn(200))
		for i := range energies {
			// Mix in repeated values so thresholds often coincide.
			if r.Intn(4) == 0 {
				energies[i] = 0.25
			} else {
				energies[i] = r.Float64()
			}
		}

		labels, th := d.Classify(energies)
		require.Len(t, labels, len(energies))
		require.LessOrEqual(t, th.T1, th.T2)
		require.LessOrEqual(t, th.T2, th.T3)

		for i, e := range energies {
			var want viseme.Label
			switch {
			case e < th.T1:
				want = viseme.Closed
			case e < th.T2:
				want = viseme.SmallOpen
			case e < th.T3:
				want = viseme.MidOpen
			default:
				want = viseme.WideOpen
			}
			require.Equal(t, want, labels[i], "energy %v thresholds %+v", e, th)
		}
	}
}

func TestQuietAndLoudClipsSpanAllBands(t *testing.T) {
	d := NewDirector(30, fullSet)
	quiet := []float64{0.001, 0.002, 0.003, 0.004, 0.005, 0.006, 0.007, 0.008}
	loud := make([]float64, len(quiet))
	for i, v := range quiet {
		loud[i] = v * 100
	}

	ql, _ := d.Classify(quiet)
	ll, _ := d.Classify(loud)
	assert.Equal(t, ql, ll)
	assert.Equal(t, viseme.Closed, ql[0])
	assert.Equal(t, viseme.WideOpen, ql[len(ql)-1])
}

func TestGenerateSequence(t *testing.T) {
	d := NewDirector(25, fullSet)
	seq := d.GenerateSequence([]float64{0, 0, 0.5, 0.5, 0.5, 0.1, 0.9, 0.9})

	require.NoError(t, seq.Validate())
	assert.Equal(t, SequenceVersion, seq.Version)
	assert.Equal(t, 25, seq.FPS)
	assert.Equal(t, 8, seq.FrameCount)
	assert.Len(t, seq.Labels(), 8)

	total := 0
	for _, n := range seq.Counts() {
		total += n
	}
	assert.Equal(t, 8, total)
}

func TestSequenceWriteRead(t *testing.T) {
	labels := []viseme.Label{viseme.Closed, viseme.Closed, viseme.FV, viseme.WideOpen, viseme.Closed}
	seq := NewSequence(labels, 30, Thresholds{T1: 0.1, T2: 0.2, T3: 0.3})
	assert.Len(t, seq.Cues, 4)

	path := filepath.Join(t.TempDir(), "nested", "seq.yaml")
	require.NoError(t, WriteSequence(seq, path))

	back, err := ReadSequence(path)
	require.NoError(t, err)
	assert.Equal(t, labels, back.Labels())
	assert.Equal(t, seq.Thresholds, back.Thresholds)
}

func TestSequenceValidate(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
	}{
		{"gap", Sequence{FrameCount: 3, Cues: []Cue{{Start: 0, Frames: 1}, {Start: 2, Frames: 1}}}},
		{"short", Sequence{FrameCount: 3, Cues: []Cue{{Start: 0, Frames: 2}}}},
		{"empty run", Sequence{FrameCount: 0, Cues: []Cue{{Start: 0, Frames: 0}}}},
		{"bad label", Sequence{FrameCount: 1, Cues: []Cue{{Start: 0, Frames: 1, Label: viseme.Label(42)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.seq.Validate())
		})
	}
}

func TestSequenceFit(t *testing.T) {
	seq := NewSequence([]viseme.Label{viseme.MidOpen, viseme.MidOpen, viseme.WideOpen}, 30, Thresholds{})

	same, changed := seq.Fit(3)
	assert.False(t, changed)
	assert.Len(t, same, 3)

	short, changed := seq.Fit(2)
	assert.True(t, changed)
	assert.Equal(t, []viseme.Label{viseme.MidOpen, viseme.MidOpen}, short)

	long, changed := seq.Fit(5)
	assert.True(t, changed)
	assert.Equal(t, []viseme.Label{viseme.MidOpen, viseme.MidOpen, viseme.WideOpen, viseme.Closed, viseme.Closed}, long)
}
