package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var validRemovals = []string{"colorkey", "command", "none"}

// Load reads the YAML file at path on top of [Default] and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults. Keys that are absent
// keep their default value; unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg can drive a render. It returns every problem
// found, joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.CharacterPath == "" {
		errs = append(errs, errors.New("character path is required"))
	}
	if cfg.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", cfg.FPS))
	}
	if cfg.MouthWidth <= 0 {
		errs = append(errs, fmt.Errorf("mouth_width must be positive, got %d", cfg.MouthWidth))
	}
	if cfg.FallbackDuration <= 0 {
		errs = append(errs, fmt.Errorf("fallback_duration must be positive, got %g", cfg.FallbackDuration))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", cfg.Workers))
	}
	if cfg.OutputWidth < 0 {
		errs = append(errs, fmt.Errorf("output_width must not be negative, got %d", cfg.OutputWidth))
	}
	if cfg.OutputVideo == "" {
		errs = append(errs, errors.New("output_video is required"))
	}
	if len(cfg.Mouths) == 0 {
		errs = append(errs, errors.New("at least one mouth asset must be configured"))
	}

	seen := make(map[string]bool, len(cfg.Mouths))
	for i, m := range cfg.Mouths {
		if !m.Label.Valid() {
			errs = append(errs, fmt.Errorf("mouths[%d]: invalid label", i))
			continue
		}
		if seen[m.Label.String()] {
			errs = append(errs, fmt.Errorf("mouths[%d]: duplicate label %s", i, m.Label))
		}
		seen[m.Label.String()] = true
		if m.File == "" {
			errs = append(errs, fmt.Errorf("mouths[%d]: file is required for %s", i, m.Label))
		}
	}

	switch cfg.BackgroundRemoval {
	case "colorkey", "command", "none":
	default:
		errs = append(errs, fmt.Errorf("background_removal %q is invalid; valid values: %s",
			cfg.BackgroundRemoval, strings.Join(validRemovals, ", ")))
	}
	if cfg.BackgroundRemoval == "command" && len(cfg.RemovalCommand) == 0 {
		errs = append(errs, errors.New("background_removal=command requires removal_command"))
	}
	if cfg.KeyTolerance < 0 {
		errs = append(errs, fmt.Errorf("key_tolerance must not be negative, got %g", cfg.KeyTolerance))
	}

	return errors.Join(errs...)
}
