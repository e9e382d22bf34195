// Package querystore implements the query cache engine behind the
// query.Cache interface. One entry exists per key; all entry state changes
// happen under the entry mutex, which is what makes the three core rules
// cheap to enforce:
//
//   - single-flight: an entry fetches at most once at a time, and every
//     subscriber or one-shot caller joins the in-flight fetch;
//   - last-request-wins: invalidation bumps the entry generation, and a
//     fetch result only lands if its generation still matches;
//   - stale-while-revalidate: stale entries keep serving their last data
//     while a background refetch runs.
package querystore

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/fsdteam8/lowready-dashboard-sub000/logger"
	"github.com/fsdteam8/lowready-dashboard-sub000/query"
)

// Store is the query cache engine. It satisfies query.Cache.
type Store struct {
	cfg     query.Config
	entries *xsync.MapOf[query.Key, *entry]
	log     *logrus.Entry
}

var _ query.Cache = (*Store)(nil)

// entry is the per-key record. Every field below is guarded by mu.
type entry struct {
	mu  sync.Mutex
	key query.Key

	status    query.Status
	data      any
	err       error
	fetchedAt time.Time
	stale     bool

	// gen is bumped on every invalidation. A fetch captures gen when it
	// starts and its result is discarded if gen moved while it was in
	// flight.
	gen uint64

	inflight  bool
	fetch     query.Fetcher
	staleTime time.Duration

	refCount int
	subs     map[*subscription]struct{}
	waiters  []chan query.Snapshot
	gcTimer  *time.Timer
}

// New creates a Store with the given configuration.
func New(cfg query.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		cfg:     cfg,
		entries: xsync.NewMapOf[query.Key, *entry](),
		log:     logger.WithComponent("querystore"),
	}, nil
}

func (s *Store) entryFor(key query.Key) *entry {
	e, _ := s.entries.LoadOrCompute(key, func() *entry {
		return &entry{
			key:       key,
			status:    query.StatusPending,
			staleTime: s.cfg.StaleTime,
			subs:      map[*subscription]struct{}{},
		}
	})
	return e
}

// Subscribe implements query.Cache.
func (s *Store) Subscribe(ctx context.Context, key query.Key, fetch query.Fetcher, opts query.Options) query.Subscription {
	e := s.entryFor(key)
	sub := &subscription{store: s, entry: e, ch: make(chan query.Snapshot, 1)}

	e.mu.Lock()
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	e.refCount++
	e.subs[sub] = struct{}{}
	if opts.StaleTime > 0 {
		e.staleTime = opts.StaleTime
	}
	if !opts.Disabled {
		e.fetch = fetch
		if e.needsFetchLocked() {
			s.startFetchLocked(ctx, e)
		}
	}
	e.mu.Unlock()

	return sub
}

// Fetch implements query.Cache. Fresh entries answer synchronously; stale
// ones answer with their last data while a refetch runs in the background;
// anything else waits for a fetch to land.
func (s *Store) Fetch(ctx context.Context, key query.Key, fetch query.Fetcher) (query.Snapshot, error) {
	e := s.entryFor(key)

	e.mu.Lock()
	if e.fetch == nil {
		e.fetch = fetch
	}
	if e.status == query.StatusSuccess {
		snap := e.snapshotLocked()
		if snap.Stale {
			s.startFetchLocked(context.Background(), e)
		}
		e.mu.Unlock()
		return snap, nil
	}

	w := make(chan query.Snapshot, 1)
	e.waiters = append(e.waiters, w)
	s.startFetchLocked(ctx, e)
	e.mu.Unlock()

	select {
	case snap := <-w:
		return snap, snap.Err
	case <-ctx.Done():
		return query.Snapshot{}, ctx.Err()
	}
}

// Invalidate implements query.Cache.
func (s *Store) Invalidate(families ...string) {
	if len(families) == 0 {
		return
	}
	s.InvalidateMatching(func(k query.Key) bool {
		for _, family := range families {
			if k.HasFamily(family) {
				return true
			}
		}
		return false
	})
}

// InvalidateMatching implements query.Cache.
func (s *Store) InvalidateMatching(pred func(query.Key) bool) {
	s.entries.Range(func(key query.Key, e *entry) bool {
		if !pred(key) {
			return true
		}
		e.mu.Lock()
		e.gen++
		e.stale = true
		if e.refCount > 0 && e.fetch != nil && !e.inflight {
			s.startFetchLocked(context.Background(), e)
		}
		e.mu.Unlock()
		s.log.WithField("key", string(key)).Debug("entry invalidated")
		return true
	})
}

// Len implements query.Cache.
func (s *Store) Len() int {
	return s.entries.Size()
}

// Close implements query.Cache.
func (s *Store) Close() {
	s.entries.Range(func(key query.Key, e *entry) bool {
		e.mu.Lock()
		if e.gcTimer != nil {
			e.gcTimer.Stop()
			e.gcTimer = nil
		}
		e.mu.Unlock()
		s.entries.Delete(key)
		return true
	})
}

// needsFetchLocked reports whether a new subscriber should trigger a fetch.
// Entries that never succeeded, errored out, or went stale all qualify.
func (e *entry) needsFetchLocked() bool {
	if e.inflight {
		return false
	}
	switch e.status {
	case query.StatusPending, query.StatusError:
		return true
	}
	return e.stale || e.expiredLocked()
}

func (e *entry) expiredLocked() bool {
	return e.staleTime > 0 && !e.fetchedAt.IsZero() && time.Since(e.fetchedAt) > e.staleTime
}

func (e *entry) snapshotLocked() query.Snapshot {
	return query.Snapshot{
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.stale || e.expiredLocked(),
	}
}

// startFetchLocked launches a fetch for e unless one is already in flight.
// Callers must hold e.mu.
func (s *Store) startFetchLocked(ctx context.Context, e *entry) {
	if e.inflight || e.fetch == nil {
		return
	}
	e.inflight = true
	go s.runFetch(ctx, e, e.fetch, e.gen)
}

func (s *Store) runFetch(ctx context.Context, e *entry, fetch query.Fetcher, gen uint64) {
	data, err := fetch(ctx)

	e.mu.Lock()
	e.inflight = false

	if gen != e.gen {
		// The entry was invalidated while this fetch was in flight, so the
		// result is already outdated. Drop it and go again for anyone
		// still watching or waiting.
		if e.refCount > 0 || len(e.waiters) > 0 {
			s.startFetchLocked(context.Background(), e)
		}
		e.mu.Unlock()
		s.log.WithField("key", string(e.key)).Debug("discarded out-of-date fetch result")
		return
	}

	if err != nil {
		// Keep the previous data so an already-rendered list survives a
		// transient failure.
		e.status = query.StatusError
		e.err = err
	} else {
		e.status = query.StatusSuccess
		e.data = data
		e.err = nil
		e.fetchedAt = time.Now()
		e.stale = false
	}

	snap := e.snapshotLocked()
	waiters := e.waiters
	e.waiters = nil
	subs := make([]*subscription, 0, len(e.subs))
	for sub := range e.subs {
		subs = append(subs, sub)
	}
	if e.refCount == 0 {
		s.armGCLocked(e)
	}
	e.mu.Unlock()

	for _, w := range waiters {
		w <- snap
	}
	for _, sub := range subs {
		sub.push(snap)
	}
}

// armGCLocked schedules eviction of an unreferenced entry after the grace
// period. Callers must hold e.mu.
func (s *Store) armGCLocked(e *entry) {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	if s.cfg.GCGrace <= 0 {
		if !e.inflight {
			s.entries.Delete(e.key)
		}
		return
	}
	e.gcTimer = time.AfterFunc(s.cfg.GCGrace, func() {
		e.mu.Lock()
		expired := e.refCount == 0 && !e.inflight
		e.mu.Unlock()
		if expired {
			s.entries.Delete(e.key)
		}
	})
}

func (s *Store) unsubscribe(sub *subscription) {
	e := sub.entry
	e.mu.Lock()
	if _, ok := e.subs[sub]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.subs, sub)
	e.refCount--
	if e.refCount == 0 {
		s.armGCLocked(e)
	}
	e.mu.Unlock()
}

// subscription is one consumer's handle on an entry. Its update channel
// holds only the latest snapshot; pushing drops any undelivered older one.
type subscription struct {
	store *Store
	entry *entry
	ch    chan query.Snapshot
	once  sync.Once
}

var _ query.Subscription = (*subscription)(nil)

// Snapshot implements query.Subscription.
func (s *subscription) Snapshot() query.Snapshot {
	s.entry.mu.Lock()
	defer s.entry.mu.Unlock()
	return s.entry.snapshotLocked()
}

// Updates implements query.Subscription.
func (s *subscription) Updates() <-chan query.Snapshot {
	return s.ch
}

// Close implements query.Subscription.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.store.unsubscribe(s)
	})
}

func (s *subscription) push(snap query.Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
