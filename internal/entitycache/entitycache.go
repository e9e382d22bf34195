// Package entitycache provides the record-level read-through cache used for
// by-ID fetches (facility detail, customer profile, and so on). List queries
// need subscription and invalidation semantics the query cache engine
// provides; single-record reads map directly onto sturdyc's stale-while-
// revalidate client, so they live here instead.
package entitycache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc client settings.
type Config struct {
	// Capacity is the maximum number of cached records. Must be > 0.
	Capacity int

	// NumShards controls concurrent access granularity. Must be > 0.
	NumShards int

	// TTL is how long a record stays cached. Must be > 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache
	// hits capacity. Must be between 1 and 100.
	EvictionPercentage int

	// EarlyRefresh, when set, refreshes frequently read records before
	// they expire to avoid refresh stampedes.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers ids that returned nothing, so a view
	// polling a deleted record does not hammer the backend.
	MissingRecordStorage bool
}

// EarlyRefreshConfig mirrors sturdyc's early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns settings suitable for dashboard detail views.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

func (c Config) options() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	return options
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

// ErrWrongType is returned when a cached value does not match the type the
// caller asked for. It indicates two families sharing a key prefix, which
// is a wiring bug.
var ErrWrongType = errors.New("entitycache: cached value has unexpected type")

// Service wraps a sturdyc client storing heterogeneous records.
type Service struct {
	client *sturdyc.Client[any]
}

// New creates a Service after validating the configuration.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.options()...,
	)
	return &Service{client: client}, nil
}

// GetOrFetch returns the cached value for key, fetching it when absent or
// expired. Concurrent callers for the same key share one fetch.
func (s *Service) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	return s.client.GetOrFetch(ctx, key, fetch)
}

// Delete removes one record, forcing the next read to hit the backend.
func (s *Service) Delete(key string) {
	s.client.Delete(key)
}

// DeleteByPrefix removes every record whose key starts with prefix. The
// mutation coordinator uses this to drop a whole resource family.
func (s *Service) DeleteByPrefix(prefix string) int {
	var removed int
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
			removed++
		}
	}
	return removed
}

// Size reports the number of cached records.
func (s *Service) Size() int {
	return s.client.Size()
}

// GetOrFetch is the type-safe wrapper over Service.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	result, err := s.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, ErrWrongType
	}
	return typed, nil
}
