package resource

import (
	"context"

	"github.com/fsdteam8/lowready-dashboard-sub000/internal/entitycache"
	"github.com/fsdteam8/lowready-dashboard-sub000/query"
)

// Cached decorates a Client with read-through caching: list pages go through
// the query cache (sharing entries, and in-flight fetches, with any list
// controller on the same key) and single records go through the record
// cache.
//
// Cached deliberately exposes no write operations. Writes belong to the
// mutation coordinator, which is the single place cache invalidation is
// declared; a second write path would reintroduce the scattered manual
// refetch calls this design removes.
type Cached[T any] struct {
	client   *Client[T]
	queries  query.Cache
	entities *entitycache.Service
	keys     query.KeySerializer
}

// NewCached wraps client with the module's two caches.
func NewCached[T any](client *Client[T], queries query.Cache, entities *entitycache.Service, keys query.KeySerializer) *Cached[T] {
	return &Cached[T]{
		client:   client,
		queries:  queries,
		entities: entities,
		keys:     keys,
	}
}

// Family returns the resource family of the underlying client.
func (c *Cached[T]) Family() string { return c.client.Family() }

// ListKey returns the cache key List would use for these parameters.
func (c *Cached[T]) ListKey(p Params) query.Key {
	return c.keys.SerializeKey(c.client.Family(), p.Normalize())
}

// List returns one page of the collection, served from the query cache when
// fresh. A stale hit returns the cached page immediately while a background
// refetch runs.
func (c *Cached[T]) List(ctx context.Context, p Params) (PageOf[T], error) {
	if err := p.Validate(); err != nil {
		return PageOf[T]{}, err
	}
	p = p.Normalize()

	snap, err := c.queries.Fetch(ctx, c.ListKey(p), func(ctx context.Context) (any, error) {
		return c.client.List(ctx, p)
	})

	page, ok := snap.Data.(PageOf[T])
	if err != nil {
		if ok {
			// Last known good page survives a failed refetch.
			return page, err
		}
		return PageOf[T]{}, err
	}
	if !ok {
		return PageOf[T]{}, entitycache.ErrWrongType
	}
	return page, nil
}

// Get returns a single record through the record cache.
func (c *Cached[T]) Get(ctx context.Context, id string) (T, error) {
	key := string(c.keys.SerializeKey(c.client.Family(), "id", id))
	return entitycache.GetOrFetch(ctx, c.entities, key, func(ctx context.Context) (T, error) {
		return c.client.Get(ctx, id)
	})
}
