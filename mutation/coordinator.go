// Package mutation executes write operations and keeps the caches honest
// afterwards. Every mutation declares up front which resource families it
// affects; on success the coordinator invalidates exactly those families in
// both the query cache and the record cache, and on failure it invalidates
// nothing, so an error is never masked by a stale-looking refetch.
package mutation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/fsdteam8/lowready-dashboard-sub000/internal/entitycache"
	"github.com/fsdteam8/lowready-dashboard-sub000/logger"
	"github.com/fsdteam8/lowready-dashboard-sub000/query"
)

// Kind classifies a mutation.
type Kind int

const (
	KindCreate Kind = iota
	KindUpdate
	KindDelete
	KindTransition
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// Intent identifies one logical user action: which family, which operation,
// and which record (empty for creates). Two mutations with the same Intent
// cannot run concurrently.
type Intent struct {
	Family   string
	Kind     Kind
	TargetID string
}

func (i Intent) key() string {
	return i.Family + "\x00" + i.Kind.String() + "\x00" + i.TargetID
}

// Status is the lifecycle of one mutation call.
type Status int32

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
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

// Fn performs the actual write, typically a resource.Client method wrapped
// in a closure. It is never retried: the underlying endpoints are not
// idempotent and a duplicate call can create a duplicate resource.
type Fn func(ctx context.Context) (any, error)

// Options declare the callbacks and the invalidation scope of a mutation.
type Options struct {
	// OnSuccess receives the operation result (e.g. a resource.Result)
	// before any invalidation happens. Typically shows the notification.
	OnSuccess func(result any)

	// OnError receives the failure. Nothing is invalidated on error.
	OnError func(err error)

	// Invalidates lists the resource families whose cached queries and
	// records become stale when this mutation succeeds.
	Invalidates []string
}

// ErrInFlight reports a duplicate submission: a mutation with the same
// intent has not finished yet. Callers disable the triggering control while
// Pending reports true, so hitting this error means the UI gate failed.
var ErrInFlight = errors.New("mutation: already in flight for this target")

// Coordinator runs mutations and propagates their invalidations.
type Coordinator struct {
	queries  query.Cache
	entities *entitycache.Service
	inflight *xsync.MapOf[string, *Handle]
	log      *logrus.Entry
}

// New creates a Coordinator over the module's two caches. entities may be
// nil when no record cache is wired.
func New(queries query.Cache, entities *entitycache.Service) *Coordinator {
	return &Coordinator{
		queries:  queries,
		entities: entities,
		inflight: xsync.NewMapOf[string, *Handle](),
		log:      logger.WithComponent("mutation"),
	}
}

// Pending reports whether a mutation with this intent is currently running.
// The UI uses it to disable the triggering control.
func (c *Coordinator) Pending(intent Intent) bool {
	h, ok := c.inflight.Load(intent.key())
	return ok && h.Status() == StatusPending
}

// Mutate executes fn exactly once for the given intent. A second call with
// the same intent while the first is pending fails with ErrInFlight. On
// success OnSuccess runs first, then the declared families are invalidated
// in both caches; on failure OnError runs and no cache is touched.
func (c *Coordinator) Mutate(ctx context.Context, intent Intent, fn Fn, opts Options) (any, error) {
	handle := newHandle()
	if _, loaded := c.inflight.LoadOrStore(intent.key(), handle); loaded {
		return nil, ErrInFlight
	}
	defer c.inflight.Delete(intent.key())

	result, err := fn(ctx)
	if err != nil {
		handle.finish(StatusError)
		c.log.WithFields(logrus.Fields{
			"family": intent.Family,
			"kind":   intent.Kind.String(),
			"target": intent.TargetID,
		}).WithError(err).Warn("mutation failed")
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return nil, err
	}

	handle.finish(StatusSuccess)
	if opts.OnSuccess != nil {
		opts.OnSuccess(result)
	}

	families := dedupe(append(append([]string{}, opts.Invalidates...), invalidationsFromContext(ctx)...))
	c.invalidate(families)
	return result, nil
}

// Go runs Mutate on a new goroutine and returns a Handle for observing its
// status. Used by views that fire an action and render its progress.
func (c *Coordinator) Go(ctx context.Context, intent Intent, fn Fn, opts Options) *Handle {
	handle := newHandle()
	if existing, loaded := c.inflight.LoadOrStore(intent.key(), handle); loaded {
		if opts.OnError != nil {
			opts.OnError(ErrInFlight)
		}
		return existing
	}

	go func() {
		defer c.inflight.Delete(intent.key())
		defer close(handle.done)

		result, err := fn(ctx)
		if err != nil {
			handle.finish(StatusError)
			if opts.OnError != nil {
				opts.OnError(err)
			}
			return
		}
		handle.finish(StatusSuccess)
		if opts.OnSuccess != nil {
			opts.OnSuccess(result)
		}
		families := dedupe(append(append([]string{}, opts.Invalidates...), invalidationsFromContext(ctx)...))
		c.invalidate(families)
	}()

	return handle
}

func (c *Coordinator) invalidate(families []string) {
	if len(families) == 0 {
		return
	}
	if c.entities != nil {
		for _, family := range families {
			c.entities.DeleteByPrefix(family)
		}
	}
	c.queries.Invalidate(families...)
	c.log.WithField("families", families).Debug("invalidated after mutation")
}

// Handle observes one mutation's status machine:
// idle -> pending -> (success | error) -> idle (via Reset).
type Handle struct {
	status atomic.Int32
	done   chan struct{}
}

func newHandle() *Handle {
	h := &Handle{done: make(chan struct{})}
	h.status.Store(int32(StatusPending))
	return h
}

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	return Status(h.status.Load())
}

// Done is closed when the mutation finished, for callers started via Go.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Reset returns a finished handle to idle, mirroring a component unmount or
// explicit reset in the UI.
func (h *Handle) Reset() {
	switch h.Status() {
	case StatusSuccess, StatusError:
		h.status.Store(int32(StatusIdle))
	}
}

func (h *Handle) finish(s Status) {
	h.status.Store(int32(s))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
