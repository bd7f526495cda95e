// Package cli holds console output helpers for the lipsync2video command.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/lipsync2video/internal/engine"
	"github.com/ivlev/lipsync2video/internal/viseme"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#D7005F")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
	warnColor    = lipgloss.Color("#FFA500")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	WarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("lipsync2video"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

func kv(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-12s", key+":")), ValueStyle.Render(value))
}

// PrintSummary writes the outcome of a run.
func PrintSummary(w io.Writer, r *engine.Report) {
	fmt.Fprintln(w, TitleStyle.Render("Done"))

	kv(w, "Frames", fmt.Sprintf("%d @ %d fps (%.2fs)", r.Frames, r.FPS, r.Duration()))
	if r.AudioPath != "" {
		kv(w, "Audio", r.AudioPath)
	} else {
		kv(w, "Audio", WarnStyle.Render("none, closed-mouth fallback"))
	}
	kv(w, "Video", r.VideoPath)
	if r.FinalPath != "" {
		kv(w, "Final", r.FinalPath)
	}
	if r.SequencePath != "" {
		kv(w, "Sequence", r.SequencePath)
	}

	if r.Sequence != nil {
		counts := r.Sequence.Counts()
		for _, l := range viseme.All() {
			if n := counts[l]; n > 0 {
				kv(w, "  "+l.String(), fmt.Sprintf("%d", n))
			}
		}
	}
	if r.SkippedOverlays > 0 {
		kv(w, "Skipped", WarnStyle.Render(fmt.Sprintf("%d mouth overlays out of bounds", r.SkippedOverlays)))
	}
	kv(w, "Time", r.Total.Round(time.Millisecond).String())
}
