package director

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteSequence writes a sequence to a YAML file, creating parent dirs.
func WriteSequence(seq *Sequence, path string) error {
	data, err := yaml.Marshal(seq)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSequence reads and validates a sequence YAML file.
func ReadSequence(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}

	return &seq, nil
}
