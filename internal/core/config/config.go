// Package config handles configuration loading and validation for blamerank.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Command-line flags override any
// value set here.
type Config struct {
	// Context is the number of unchanged lines around each changed range
	// that are also attributed.
	Context *int `yaml:"context"`
	// MaxConcurrency caps concurrent attribution tasks. 0 means auto.
	MaxConcurrency int `yaml:"max_concurrency"`
	// MaxFileSize skips files larger than this many bytes. 0 means no limit.
	MaxFileSize int64 `yaml:"max_file_size"`
	// DetectRenames tracks renames before attributing line ranges.
	DetectRenames *bool `yaml:"detect_renames"`
	// Exclude drops files matching these glob patterns from attribution.
	Exclude []string `yaml:"exclude"`
	// NoProgress disables the progress bar.
	NoProgress bool `yaml:"no_progress"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	context := 1
	renames := true
	return Config{
		Context:       &context,
		DetectRenames: &renames,
	}
}

// Load reads the config file at configPath if it exists, applies defaults for
// unset values, and validates the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := Config{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Context == nil {
		c.Context = defaults.Context
	}
	if c.DetectRenames == nil {
		c.DetectRenames = defaults.DetectRenames
	}
}

// ContextLines returns the configured context line count.
func (c *Config) ContextLines() int {
	if c.Context == nil {
		return *DefaultConfig().Context
	}
	return *c.Context
}

// RenamesEnabled reports whether rename detection is on.
func (c *Config) RenamesEnabled() bool {
	if c.DetectRenames == nil {
		return *DefaultConfig().DetectRenames
	}
	return *c.DetectRenames
}
