// Package worker provides a bounded worker pool for tracker runs.
package worker

import (
	"errors"
	"time"
)

const (
	// DefaultPoolSize is the default number of workers in the pool.
	DefaultPoolSize = 5

	// DefaultDrainTimeout is the default timeout for graceful shutdown.
	DefaultDrainTimeout = 30 * time.Second

	// DefaultJobTimeout is the default timeout for a single tracker run.
	DefaultJobTimeout = 10 * time.Minute

	// MinPoolSize is the minimum allowed pool size.
	MinPoolSize = 1

	// MaxPoolSize is the maximum allowed pool size.
	MaxPoolSize = 100
)

// Config holds configuration for the worker pool.
type Config struct {
	// PoolSize is the number of concurrent workers.
	PoolSize int

	// DrainTimeout is the maximum time to wait for workers to finish during shutdown.
	DrainTimeout time.Duration

	// JobTimeout is the timeout applied to each submitted job.
	JobTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:     DefaultPoolSize,
		DrainTimeout: DefaultDrainTimeout,
		JobTimeout:   DefaultJobTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PoolSize < MinPoolSize {
		return errors.New("pool size must be at least 1")
	}
	if c.PoolSize > MaxPoolSize {
		return errors.New("pool size cannot exceed 100")
	}
	if c.DrainTimeout <= 0 {
		return errors.New("drain timeout must be positive")
	}
	if c.JobTimeout <= 0 {
		return errors.New("job timeout must be positive")
	}
	return nil
}
