package resource

import (
	"context"
	"net/http"

	"github.com/fsdteam8/lowready-dashboard-sub000/rest"
)

// Client maps typed operations for one resource family onto that family's
// REST endpoints. It holds no state beyond its wiring:
// reads are idempotent, caching belongs to the layers above, and errors
// from the HTTP client propagate unchanged.
//
// Writes are NOT idempotent. Nothing in this package or above it retries
// them automatically; duplicate submissions are prevented at the mutation
// coordinator instead.
type Client[T any] struct {
	rc     *rest.Client
	family string
}

// NewClient binds a typed client to a resource family, e.g.
//
//	facilities := resource.NewClient[resource.Facility](rc, resource.FamilyFacilities)
func NewClient[T any](rc *rest.Client, family string) *Client[T] {
	return &Client[T]{rc: rc, family: family}
}

// Family returns the resource family this client serves. It is also the
// cache key prefix for every read the client performs.
func (c *Client[T]) Family() string { return c.family }

// List fetches one page of the collection.
func (c *Client[T]) List(ctx context.Context, p Params) (PageOf[T], error) {
	if err := p.Validate(); err != nil {
		return PageOf[T]{}, err
	}
	p = p.Normalize()

	env, err := c.rc.Get(ctx, listPath(c.family, p))
	if err != nil {
		return PageOf[T]{}, err
	}
	return decodeList[T](env, p.Limit)
}

// Get fetches a single record by id.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	env, err := c.rc.Get(ctx, itemPath(c.family, id))
	if err != nil {
		return zero, err
	}
	return decodeOne[T](env)
}

// Create adds a record. The payload may implement validation.Validatable to
// be checked locally before submission.
func (c *Client[T]) Create(ctx context.Context, payload any) (Result[T], error) {
	if err := validatePayload(payload); err != nil {
		return Result[T]{}, err
	}
	env, err := c.rc.Post(ctx, "/"+c.family, payload)
	if err != nil {
		return Result[T]{}, err
	}
	record, err := decodeOne[T](env)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Record: record, Message: env.Message}, nil
}

// Update patches selected fields of a record.
func (c *Client[T]) Update(ctx context.Context, id string, payload any) (Result[T], error) {
	if err := validatePayload(payload); err != nil {
		return Result[T]{}, err
	}
	env, err := c.rc.Patch(ctx, itemPath(c.family, id), payload)
	if err != nil {
		return Result[T]{}, err
	}
	record, err := decodeOne[T](env)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Record: record, Message: env.Message}, nil
}

// UpdateStatus performs a status transition (approve, decline, cancel...).
func (c *Client[T]) UpdateStatus(ctx context.Context, id, status string) (Result[T], error) {
	body := map[string]string{"status": status}
	env, err := c.rc.Put(ctx, statusPath(c.family, id), body)
	if err != nil {
		return Result[T]{}, err
	}
	record, err := decodeOne[T](env)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Record: record, Message: env.Message}, nil
}

// Delete removes a record.
func (c *Client[T]) Delete(ctx context.Context, id string) (Result[T], error) {
	env, err := c.rc.Request(ctx, http.MethodDelete, itemPath(c.family, id), nil)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Message: env.Message}, nil
}
