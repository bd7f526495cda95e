package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/lipsync2video/internal/director"
	"github.com/ivlev/lipsync2video/internal/engine"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

func TestPrintSummary(t *testing.T) {
	labels := []viseme.Label{viseme.Closed, viseme.Closed, viseme.WideOpen}
	r := &engine.Report{
		Frames:          3,
		FPS:             30,
		Sequence:        director.NewSequence(labels, 30, director.Thresholds{}),
		VideoPath:       "out.mp4",
		SkippedOverlays: 2,
		Total:           1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	PrintSummary(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "3 @ 30 fps")
	assert.Contains(t, out, "out.mp4")
	assert.Contains(t, out, "closed-mouth fallback")
	assert.Contains(t, out, "2 mouth overlays out of bounds")
	assert.Contains(t, out, "1.5s")
	assert.NotContains(t, out, "Final")
}
