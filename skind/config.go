package skind

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A Config describes a full pipeline run: where the baked scene and weight
// table live, which frames to sample, and how to simplify and emit data.
type Config struct {
	// Scene is the path to a baked scene file (see WriteScene).
	Scene string `yaml:"scene"`

	// Weights is the path to the skin weight table.
	Weights string `yaml:"weights"`

	// TargetMesh names the ground-truth mesh within the scene.
	TargetMesh string `yaml:"target_mesh"`

	Frames   FrameRange     `yaml:"frames"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SimplifyConfig selects and tunes the weight-simplification strategy.
type SimplifyConfig struct {
	// Strategy is "fast" or "exhaustive".
	Strategy string `yaml:"strategy"`

	// TieBreak is "lowest" or "highest".
	TieBreak string `yaml:"tie_break"`

	Concurrency int `yaml:"concurrency"`
}

// DatasetConfig tunes dataset emission.
type DatasetConfig struct {
	RotationOnly bool `yaml:"rotation_only"`
	Normalize    bool `yaml:"normalize"`

	// CSVDir, when set, receives one CSV per joint.
	CSVDir string `yaml:"csv_dir"`
}

// OutputConfig holds output paths.
type OutputConfig struct {
	Samples string `yaml:"samples"`
	Weights string `yaml:"weights"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TargetMesh: "target",
		Frames:     FrameRange{Start: 1, End: 1, Step: 1},
		Simplify: SimplifyConfig{
			Strategy: "exhaustive",
			TieBreak: "lowest",
		},
		Output: OutputConfig{
			Samples: "samples.json",
			Weights: "weights_simplified.json",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config file, merged over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "load config %q", path)
	}
	return cfg, nil
}

// ParseTieBreak converts a config string to a TieBreak.
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "lowest":
		return TieBreakLowestJoint, nil
	case "highest":
		return TieBreakHighestJoint, nil
	default:
		return 0, errors.Errorf("unknown tie break %q", s)
	}
}
