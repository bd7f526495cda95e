// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level   string    // debug, info, warn or error (default: info)
	Console bool      // human-readable output instead of JSON
	Writer  io.Writer // default: os.Stderr
}

// New returns a logger tagged with the app name.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: unknown level %q", cfg.Level)
		}
		level = l
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
		}
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", "lipsync2video").
		Logger(), nil
}

// Component returns log with the component field set.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
