package query

import "time"

// Config tunes the query cache engine.
type Config struct {
	// StaleTime is how long a successful fetch counts as fresh. Zero means
	// entries stay fresh until explicitly invalidated; stale entries are
	// still served immediately while a background refetch runs.
	StaleTime time.Duration

	// GCGrace is how long an entry with no subscribers survives before
	// eviction. Zero evicts as soon as the last subscriber leaves.
	GCGrace time.Duration
}

// DefaultConfig returns the settings used by the container when the
// environment does not override them.
func DefaultConfig() Config {
	return Config{
		StaleTime: 0,
		GCGrace:   30 * time.Second,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.StaleTime < 0 {
		return &ConfigError{Field: "StaleTime", Message: "must be non-negative"}
	}
	if c.GCGrace < 0 {
		return &ConfigError{Field: "GCGrace", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError reports an invalid cache configuration value.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
