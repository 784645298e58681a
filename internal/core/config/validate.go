package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("context", c.ContextLines(), nonNegative),
		criterio.Run("max_concurrency", c.MaxConcurrency, nonNegative),
		c.validateMaxFileSize(),
		c.validateExclude(),
	)
}

func nonNegative(n int) error {
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

func (c *Config) validateMaxFileSize() error {
	if c.MaxFileSize < 0 {
		return criterio.NewFieldErrors("max_file_size", fmt.Errorf("must not be negative, got %d", c.MaxFileSize))
	}
	return nil
}

func (c *Config) validateExclude() error {
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return criterio.NewFieldErrors("exclude", fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}
	return nil
}
