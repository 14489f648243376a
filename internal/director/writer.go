package director

import (
	"fmt"
	"os"

	"github.com/ivlev/badgecast/internal/frame"
	"gopkg.in/yaml.v3"
)

// Sequence is a generated animation persisted for inspection or replay.
type Sequence struct {
	Version string        `yaml:"version"`
	Preset  string        `yaml:"preset"`
	Width   int           `yaml:"width"`
	Height  int           `yaml:"height"`
	Frames  []frame.Frame `yaml:"frames"`
}

// WriteFrames writes a sequence to a YAML file
func WriteFrames(seq *Sequence, path string) error {
	data, err := yaml.Marshal(seq)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadFrames reads a sequence from a YAML file and validates every frame.
func ReadFrames(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}
	for i, f := range seq.Frames {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return &seq, nil
}
