package config

import "fmt"

// Limits bounds concurrent sidecar processes.
type Limits struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" json:"max_concurrent_runs"` // Parallel report invocations
}

// ValidateLimits checks that limits are within acceptable ranges.
func (c *Config) ValidateLimits() error {
	if c.Limits.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be >= 1")
	}
	return nil
}
