package query

import (
	"context"
	"strings"
	"time"
)

// Key identifies one cached request: a resource family plus its serialized
// parameters. Keys are produced by a KeySerializer.
type Key string

// Family returns the resource family segment of the key.
func (k Key) Family() string {
	s := string(k)
	if i := strings.Index(s, KeySeparator); i >= 0 {
		return s[:i]
	}
	return s
}

// HasFamily reports whether the key belongs to the given resource family.
func (k Key) HasFamily(family string) bool {
	return k.Family() == family
}

// Status describes the fetch state of a cache entry.
type Status int

const (
	// StatusPending means no fetch has completed yet for this entry.
	StatusPending Status = iota
	// StatusSuccess means the entry holds valid data from the last fetch.
	StatusSuccess
	// StatusError means the last fetch failed. Data from an earlier
	// successful fetch, if any, is still present.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a cache entry at one point in time.
type Snapshot struct {
	Status    Status
	Data      any
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// Fetcher loads the value for a key from the backend. It must be safe to
// call from a background goroutine.
type Fetcher func(ctx context.Context) (any, error)

// Options tune a single subscription.
type Options struct {
	// Disabled suppresses fetching entirely; the subscription still
	// observes whatever the cache holds. Used when a required parameter
	// (e.g. a user id) is not available yet.
	Disabled bool

	// StaleTime overrides the cache-wide freshness window for this key.
	// Zero inherits the cache default.
	StaleTime time.Duration
}

// Subscription is one consumer's registration against a key.
type Subscription interface {
	// Snapshot returns the entry's current state synchronously.
	Snapshot() Snapshot
	// Updates delivers a Snapshot after every entry change. The channel
	// holds only the latest snapshot; slow consumers see the freshest
	// state, not every intermediate one.
	Updates() <-chan Snapshot
	// Close deregisters the consumer. The entry becomes eligible for
	// garbage collection once its last subscription closes.
	Close()
}

// Cache is the shared query cache consumed by list controllers and the
// mutation coordinator. The implementation lives in internal/querystore.
type Cache interface {
	// Subscribe registers a consumer for key, fetching if the entry is
	// missing or stale and the subscription is not disabled.
	Subscribe(ctx context.Context, key Key, fetch Fetcher, opts Options) Subscription

	// Fetch is a one-shot read-through: it returns the entry's value,
	// fetching (or joining an in-flight fetch) when necessary.
	Fetch(ctx context.Context, key Key, fetch Fetcher) (Snapshot, error)

	// Invalidate marks every entry of the given families stale. Entries
	// with active subscribers refetch immediately; the rest refetch on
	// next access.
	Invalidate(families ...string)

	// InvalidateMatching is Invalidate with an arbitrary key predicate.
	InvalidateMatching(pred func(Key) bool)

	// Len reports how many entries the cache currently holds.
	Len() int

	// Close releases timers and drops all entries.
	Close()
}
