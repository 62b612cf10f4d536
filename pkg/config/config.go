// Package config loads and validates analytics configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config controls worker sizing, frontier representation switching and the
// default iteration caps of the algorithms.
type Config struct {
	// Workers is the worker pool size; 0 means one worker per CPU.
	Workers int `yaml:"workers" validate:"min=0"`

	// DenseThreshold is the active fraction above which a frontier switches
	// to its bitmap representation.
	DenseThreshold float64 `yaml:"dense_threshold" validate:"gt=0,lte=1"`

	// WCCMaxIterations caps WCC label-propagation rounds.
	WCCMaxIterations int `yaml:"wcc_max_iterations" validate:"min=1"`

	// LouvainMaxPhases caps Louvain contraction phases.
	LouvainMaxPhases int `yaml:"louvain_max_phases" validate:"min=1"`

	// LouvainMaxIterations caps local-move sweeps within one phase.
	LouvainMaxIterations int `yaml:"louvain_max_iterations" validate:"min=1"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Workers:              0,
		DenseThreshold:       0.05,
		WCCMaxIterations:     100,
		LouvainMaxPhases:     20,
		LouvainMaxIterations: 20,
	}
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid analytics config: %w", err)
	}
	return nil
}

// Load reads a YAML config file, applying defaults for absent fields.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
