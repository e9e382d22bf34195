// Package config resolves the data core's configuration from the
// environment. A .env file is honored when present so local development
// matches deployed behavior.
package config

import (
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/fsdteam8/lowready-dashboard-sub000/logger"
	"github.com/fsdteam8/lowready-dashboard-sub000/rest"
)

// Config holds everything the container needs to wire the data core.
type Config struct {
	// APIBaseURL is the backend REST base URL. Required.
	APIBaseURL string `env:"API_URL"`

	// StaleTime is how long a successful fetch stays fresh. Zero means
	// entries are fresh until explicitly invalidated.
	StaleTime time.Duration `env:"CACHE_STALE_TIME,default=0s"`

	// GCGrace is how long an unreferenced cache entry survives before
	// eviction.
	GCGrace time.Duration `env:"CACHE_GC_GRACE,default=30s"`

	// Capacity and NumShards size the record-level cache.
	Capacity  int `env:"CACHE_CAPACITY,default=10000"`
	NumShards int `env:"CACHE_NUM_SHARDS,default=256"`

	// LogLevel overrides the shared logger level when set.
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Default returns the configuration used when no environment is present,
// minus the base URL which has no sensible default.
func Default() Config {
	return Config{
		StaleTime: 0,
		GCGrace:   30 * time.Second,
		Capacity:  10000,
		NumShards: 256,
		LogLevel:  "info",
	}
}

// Load reads the configuration from the environment. A missing or relative
// base URL is fatal and reported as a *rest.ConfigError.
func Load() (Config, error) {
	// Best effort: absence of a .env file is the normal deployed case.
	_ = godotenv.Load()

	cfg := Default()
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return Config{}, &rest.ConfigError{Field: "environment", Message: err.Error()}
	}

	if cfg.APIBaseURL == "" {
		// Legacy name carried over from the previous deployment setup.
		cfg.APIBaseURL = os.Getenv("NEXT_PUBLIC_API_URL")
	}
	if cfg.APIBaseURL == "" {
		return Config{}, &rest.ConfigError{Field: "API_URL", Message: "must be set"}
	}

	if cfg.LogLevel != "" {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return Config{}, &rest.ConfigError{Field: "LOG_LEVEL", Message: err.Error()}
		}
	}

	return cfg, nil
}

// MustLoad is Load for program entry points where a bad environment should
// stop the process.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		logger.WithComponent("config").Fatal(err)
	}
	return cfg
}
