// Package listview implements the generic list page controller: it owns the
// page number and filters, derives the cache key for that state, and turns
// cache snapshots into the five rendering phases every list page shares.
// One Controller instance backs one mounted page (facilities, customers,
// reviews, ...).
package listview

import (
	"context"
	"sync"
	"time"

	"github.com/fsdteam8/lowready-dashboard-sub000/query"
	"github.com/fsdteam8/lowready-dashboard-sub000/resource"
)

// Phase is the rendering state of a list page.
type Phase int

const (
	// PhaseIdle means the controller has not started yet.
	PhaseIdle Phase = iota
	// PhaseLoading means no data has arrived for the current key.
	PhaseLoading
	// PhaseLoaded means the current page's items are available.
	PhaseLoaded
	// PhaseEmpty means the fetch succeeded and returned zero items. It is
	// rendered distinctly from PhaseError.
	PhaseEmpty
	// PhaseError means the fetch failed and no earlier data exists.
	PhaseError
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a page renders.
type State[T any] struct {
	Phase      Phase
	Items      []T
	Page       int
	TotalPages int
	Total      int

	// Message carries the error text in PhaseError.
	Message string

	// Warning is set when a background refetch failed but earlier data is
	// still shown. Rendered as a non-blocking banner, not an error page.
	Warning string
}

// Filters are the user-adjustable query fields. They combine by AND; the
// zero value is the unfiltered view.
type Filters struct {
	Status string
	Search string
	SortBy string
	From   time.Time
	To     time.Time
}

// Lister fetches one page of a resource family, typically a
// *resource.Client[T]. It must hit the backend directly: the controller
// already reads through the query cache, and a lister that consults the same
// cache would wait on its own fetch.
type Lister[T any] interface {
	Family() string
	List(ctx context.Context, p resource.Params) (resource.PageOf[T], error)
}

// Controller drives one list page.
type Controller[T any] struct {
	cache  query.Cache
	keys   query.KeySerializer
	lister Lister[T]

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	params     resource.Params
	totalPages int
	sub        query.Subscription
	stop       chan struct{}
	updates    chan State[T]
	wg         sync.WaitGroup
}

// New creates a controller starting at page 1 with the given page size.
func New[T any](cache query.Cache, keys query.KeySerializer, lister Lister[T], limit int) *Controller[T] {
	if limit < 1 {
		limit = resource.DefaultLimit
	}
	return &Controller[T]{
		cache:   cache,
		keys:    keys,
		lister:  lister,
		params:  resource.Params{Page: 1, Limit: limit},
		updates: make(chan State[T], 1),
	}
}

// Start subscribes the controller to the cache. It is a no-op when called
// twice.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.resubscribeLocked()
}

// Close releases the subscription and stops the watcher.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Params returns the controller's current query parameters.
func (c *Controller[T]) Params() resource.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// State returns the current rendering state synchronously.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return State[T]{Phase: PhaseIdle, Page: c.params.Page}
	}
	return c.stateFromSnapshot(c.sub.Snapshot())
}

// Updates emits a State after every change. The channel holds only the
// latest state.
func (c *Controller[T]) Updates() <-chan State[T] {
	return c.updates
}

// SetPage moves to the requested page, clamped to [1, totalPages]. An
// out-of-range page is never sent to the backend.
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page = c.clampLocked(page)
	if page == c.params.Page {
		return
	}
	c.params.Page = page
	c.resubscribeLocked()
}

// SetFilters replaces the filter set. Changing filters resets to page 1,
// since the new result set invalidates prior page positions.
func (c *Controller[T]) SetFilters(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Status = f.Status
	c.params.Search = f.Search
	c.params.SortBy = f.SortBy
	c.params.From = f.From
	c.params.To = f.To
	c.params.Page = 1
	c.totalPages = 0
	c.resubscribeLocked()
}

// SetSearch updates the free-text search filter, resetting to page 1.
func (c *Controller[T]) SetSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.Search == search {
		return
	}
	c.params.Search = search
	c.params.Page = 1
	c.totalPages = 0
	c.resubscribeLocked()
}

// ClearFilters returns to the unfiltered first-page view.
func (c *Controller[T]) ClearFilters() {
	c.SetFilters(Filters{})
}

// Key returns the cache key for the controller's current state.
func (c *Controller[T]) Key() query.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.SerializeKey(c.lister.Family(), c.params.Normalize())
}

func (c *Controller[T]) clampLocked(page int) int {
	if page < 1 {
		return 1
	}
	if c.totalPages > 0 && page > c.totalPages {
		return c.totalPages
	}
	return page
}

// resubscribeLocked swaps the cache subscription to the key derived from
// the current parameters. The previous watcher is stopped so a late
// snapshot from the old key is never applied. Callers must hold c.mu.
func (c *Controller[T]) resubscribeLocked() {
	if c.ctx == nil {
		return
	}
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}

	params := c.params.Normalize()
	key := c.keys.SerializeKey(c.lister.Family(), params)
	sub := c.cache.Subscribe(c.ctx, key, func(ctx context.Context) (any, error) {
		return c.lister.List(ctx, params)
	}, query.Options{})

	stop := make(chan struct{})
	c.sub = sub
	c.stop = stop

	c.emit(c.stateFromSnapshot(sub.Snapshot()))

	c.wg.Add(1)
	go c.watch(sub, stop)
}

func (c *Controller[T]) watch(sub query.Subscription, stop chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case snap := <-sub.Updates():
			c.apply(sub, snap)
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller[T]) apply(sub query.Subscription, snap query.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub != c.sub {
		// Late snapshot from a key we already navigated away from.
		return
	}

	state := c.stateFromSnapshot(snap)

	if snap.Status == query.StatusSuccess {
		c.totalPages = state.TotalPages
		if state.TotalPages > 0 && c.params.Page > state.TotalPages {
			// The result set shrank under us (a filter narrowed it, or
			// records were deleted). Re-derive from the nearest valid page.
			c.params.Page = state.TotalPages
			c.resubscribeLocked()
			return
		}
	}

	c.emit(state)
}

func (c *Controller[T]) stateFromSnapshot(snap query.Snapshot) State[T] {
	state := State[T]{Page: c.params.Page}

	page, hasData := snap.Data.(resource.PageOf[T])
	if hasData {
		state.Items = page.Items
		state.TotalPages = page.Meta.TotalPages
		state.Total = page.Meta.Total
	}

	switch snap.Status {
	case query.StatusPending:
		state.Phase = PhaseLoading
	case query.StatusSuccess:
		if len(state.Items) == 0 {
			state.Phase = PhaseEmpty
		} else {
			state.Phase = PhaseLoaded
		}
	case query.StatusError:
		if hasData {
			// Keep showing the last good page; surface the failure as a
			// non-blocking warning.
			state.Phase = PhaseLoaded
			if len(state.Items) == 0 {
				state.Phase = PhaseEmpty
			}
			if snap.Err != nil {
				state.Warning = snap.Err.Error()
			}
		} else {
			state.Phase = PhaseError
			if snap.Err != nil {
				state.Message = snap.Err.Error()
			}
		}
	}

	return state
}

func (c *Controller[T]) emit(state State[T]) {
	for {
		select {
		case c.updates <- state:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}
