// Package effects builds the ffmpeg filter chain applied to the rendered
// frame stream.
package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/lipsync2video/internal/config"
	"github.com/ivlev/lipsync2video/internal/system"
)

type Effect interface {
	GenerateFilter(params config.EncodeParams) string
}

// DefaultEffect pads the canvas to even dimensions, which yuv420p requires,
// and optionally scales it to OutputWidth.
type DefaultEffect struct {
	// DrawText is consulted for debug overlays. Nil means ask ffmpeg.
	DrawText func() bool
}

func (e *DefaultEffect) GenerateFilter(p config.EncodeParams) string {
	filters := []string{"pad=ceil(iw/2)*2:ceil(ih/2)*2"}

	if p.OutputWidth > 0 && p.OutputWidth != p.Width {
		// -2 keeps the aspect ratio and an even height.
		w := p.OutputWidth + p.OutputWidth%2
		filters = append(filters, fmt.Sprintf("scale=%d:-2:flags=lanczos", w))
	}

	if p.Debug && e.drawTextSupported() {
		filters = append(filters,
			"drawtext=text='%{n}':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5")
	}

	return strings.Join(filters, ",")
}

func (e *DefaultEffect) drawTextSupported() bool {
	if e.DrawText != nil {
		return e.DrawText()
	}
	return system.CheckFilterSupport("drawtext")
}
