package config

import "errors"

// Config is the top-level configuration struct for despecter.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Rewrite RewriteConfig `mapstructure:"rewrite"`
	Rename  RenameConfig  `mapstructure:"rename"`
	Pycdc   PycdcConfig   `mapstructure:"pycdc"`
	Runner  RunnerConfig  `mapstructure:"runner"`
}

// RewriteConfig holds rewrite engine knobs.
type RewriteConfig struct {
	MaxPasses int `mapstructure:"max_passes"`
}

// RenameConfig holds identifier renamer knobs.
type RenameConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PycdcConfig holds decompiler collaborator settings.
type PycdcConfig struct {
	Binary string `mapstructure:"binary"`
}

// RunnerConfig holds multi-file runner settings.
type RunnerConfig struct {
	Workers int  `mapstructure:"workers"`
	Banner  bool `mapstructure:"banner"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxPasses indicates the pass cap is not positive.
	ErrInvalidMaxPasses = errors.New("rewrite.max_passes must be positive")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("runner.workers must be non-negative")
	// ErrEmptyPycdcBinary indicates no decompiler binary is configured.
	ErrEmptyPycdcBinary = errors.New("pycdc.binary must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Rewrite.MaxPasses < 1 {
		return ErrInvalidMaxPasses
	}

	if c.Runner.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pycdc.Binary == "" {
		return ErrEmptyPycdcBinary
	}

	return nil
}
