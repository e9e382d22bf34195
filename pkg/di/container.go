// Package di wires the data core together: configuration, the HTTP client,
// both caches, the mutation coordinator, and factories for typed resource
// clients and list controllers. The container is an explicit object with an
// explicit lifecycle; nothing in the module relies on package-level state,
// which keeps every piece testable in isolation.
package di

import (
	"github.com/fsdteam8/lowready-dashboard-sub000/config"
	"github.com/fsdteam8/lowready-dashboard-sub000/internal/entitycache"
	"github.com/fsdteam8/lowready-dashboard-sub000/internal/querystore"
	"github.com/fsdteam8/lowready-dashboard-sub000/listview"
	"github.com/fsdteam8/lowready-dashboard-sub000/mutation"
	"github.com/fsdteam8/lowready-dashboard-sub000/query"
	"github.com/fsdteam8/lowready-dashboard-sub000/resource"
	"github.com/fsdteam8/lowready-dashboard-sub000/rest"
	"github.com/fsdteam8/lowready-dashboard-sub000/session"
)

// Container manages singleton instances of the data core's components.
type Container struct {
	cfg       config.Config
	rest      *rest.Client
	keys      query.KeySerializer
	queries   query.Cache
	entities  *entitycache.Service
	mutations *mutation.Coordinator
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	sessions    session.Provider
	restOptions []rest.Option
}

// WithSessionProvider sets the provider consulted for bearer tokens.
func WithSessionProvider(p session.Provider) Option {
	return func(o *options) { o.sessions = p }
}

// WithRestOptions appends extra options for the HTTP client.
func WithRestOptions(opts ...rest.Option) Option {
	return func(o *options) { o.restOptions = append(o.restOptions, opts...) }
}

// New builds a container from the given configuration.
func New(cfg config.Config, opts ...Option) (*Container, error) {
	o := &options{sessions: session.NoSession{}}
	for _, opt := range opts {
		opt(o)
	}

	restOpts := append([]rest.Option{rest.WithSession(o.sessions)}, o.restOptions...)
	rc, err := rest.New(cfg.APIBaseURL, restOpts...)
	if err != nil {
		return nil, err
	}

	queries, err := querystore.New(query.Config{
		StaleTime: cfg.StaleTime,
		GCGrace:   cfg.GCGrace,
	})
	if err != nil {
		return nil, err
	}

	entityCfg := entitycache.DefaultConfig()
	if cfg.Capacity > 0 {
		entityCfg.Capacity = cfg.Capacity
	}
	if cfg.NumShards > 0 {
		entityCfg.NumShards = cfg.NumShards
	}
	entities, err := entitycache.New(entityCfg)
	if err != nil {
		queries.Close()
		return nil, err
	}

	return &Container{
		cfg:       cfg,
		rest:      rc,
		keys:      query.NewDefaultKeySerializer(),
		queries:   queries,
		entities:  entities,
		mutations: mutation.New(queries, entities),
	}, nil
}

// FromEnv builds a container from the process environment.
func FromEnv(opts ...Option) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() config.Config { return c.cfg }

// Rest returns the shared HTTP client.
func (c *Container) Rest() *rest.Client { return c.rest }

// KeySerializer returns the singleton key serializer.
func (c *Container) KeySerializer() query.KeySerializer { return c.keys }

// Queries returns the shared query cache.
func (c *Container) Queries() query.Cache { return c.queries }

// Entities returns the shared record cache.
func (c *Container) Entities() *entitycache.Service { return c.entities }

// Mutations returns the shared mutation coordinator.
func (c *Container) Mutations() *mutation.Coordinator { return c.mutations }

// Close releases the container's caches and timers.
func (c *Container) Close() {
	c.queries.Close()
}

// NewResourceClient creates a typed client for one resource family.
//
// Since Go methods cannot have type parameters, the factories below are
// package-level functions taking the container as their first argument.
func NewResourceClient[T any](c *Container, family string) *resource.Client[T] {
	return resource.NewClient[T](c.rest, family)
}

// NewCachedResource creates a typed, cache-backed reader for one family.
func NewCachedResource[T any](c *Container, family string) *resource.Cached[T] {
	return resource.NewCached(resource.NewClient[T](c.rest, family), c.queries, c.entities, c.keys)
}

// NewListController creates a list page controller for one family. The
// controller subscribes to the shared query cache itself, so it fetches
// through the plain client; wrapping the cached reader here would make the
// entry's fetch wait on its own in-flight fetch.
func NewListController[T any](c *Container, family string, limit int) *listview.Controller[T] {
	return listview.New(c.queries, c.keys, NewResourceClient[T](c, family), limit)
}
