package director

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// quantileSorted interpolates linearly between the two closest ranks
// (Hyndman-Fan type 7). sorted must be ascending.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// GenerateSequencePath creates a timestamped sequence filename inside dir.
func GenerateSequencePath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("sequence_%s.yaml", timestamp))
}

// FindLatestSequence finds the most recent sequence file in dir.
func FindLatestSequence(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read sequences directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var sequences []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		sequences = append(sequences, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(sequences) == 0 {
		return "", fmt.Errorf("no sequence files found in %s", dir)
	}

	// Newest first
	sort.Slice(sequences, func(i, j int) bool {
		return sequences[i].mod.After(sequences[j].mod)
	})

	return sequences[0].path, nil
}
