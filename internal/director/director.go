package director

import (
	"sort"

	"github.com/ivlev/lipsync2video/internal/viseme"
)

// Director assigns a mouth shape to every frame from its audio energy.
type Director struct {
	FPS       int
	Available viseme.Set // labels that have a mouth image
}

// NewDirector creates a Director for the given frame rate and asset set.
func NewDirector(fps int, available viseme.Set) *Director {
	return &Director{FPS: fps, Available: available}
}

// Thresholds are the quartile band edges of one clip's energy distribution.
type Thresholds struct {
	T1 float64 `yaml:"t1"`
	T2 float64 `yaml:"t2"`
	T3 float64 `yaml:"t3"`
}

// ComputeThresholds returns the 25th, 50th and 75th percentiles of energies,
// computed once over the whole clip.
func ComputeThresholds(energies []float64) Thresholds {
	sorted := make([]float64, len(energies))
	copy(sorted, energies)
	sort.Float64s(sorted)

	return Thresholds{
		T1: quantileSorted(sorted, 0.25),
		T2: quantileSorted(sorted, 0.50),
		T3: quantileSorted(sorted, 0.75),
	}
}

// Classify maps each energy to a label. A value equal to a threshold falls
// into the higher band. A silent clip (all zeros) is closed throughout.
func (d *Director) Classify(energies []float64) ([]viseme.Label, Thresholds) {
	labels := make([]viseme.Label, len(energies))
	if allZero(energies) {
		for i := range labels {
			labels[i] = viseme.Closed
		}
		return labels, Thresholds{}
	}

	th := ComputeThresholds(energies)
	wide := viseme.ResolveWide(d.Available)

	for i, e := range energies {
		switch {
		case e < th.T1:
			labels[i] = viseme.Closed
		case e < th.T2:
			labels[i] = viseme.SmallOpen
		case e < th.T3:
			labels[i] = viseme.MidOpen
		default:
			labels[i] = wide
		}
	}
	return labels, th
}

// GenerateSequence classifies energies and packs the result for export.
func (d *Director) GenerateSequence(energies []float64) *Sequence {
	labels, th := d.Classify(energies)
	return NewSequence(labels, d.FPS, th)
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
