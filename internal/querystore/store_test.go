package querystore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsdteam8/lowready-dashboard-sub000/query"
)

func newTestStore(t *testing.T, cfg query.Config) *Store {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// countingFetcher counts invocations and returns a value derived from the
// invocation number.
func countingFetcher(calls *atomic.Int64, delay time.Duration) query.Fetcher {
	return func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return n, nil
	}
}

func waitSnapshot(t *testing.T, sub query.Subscription, accept func(query.Snapshot) bool) query.Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-sub.Updates():
			if accept(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot, last known: %+v", sub.Snapshot())
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(query.Config{StaleTime: -1}); err == nil {
		t.Error("expected error for negative StaleTime")
	}
	if _, err := New(query.Config{GCGrace: -1}); err == nil {
		t.Error("expected error for negative GCGrace")
	}
}

func TestFetchSingleFlight(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	fetch := countingFetcher(&calls, 50*time.Millisecond)
	key := query.Key("facilities::page:1")

	const workers = 10
	var wg sync.WaitGroup
	results := make([]any, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := s.Fetch(context.Background(), key, fetch)
			results[i], errs[i] = snap.Data, err
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single backend call, got %d", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Errorf("worker %d: unexpected error %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("worker %d saw %v, worker 0 saw %v", i, results[i], results[0])
		}
	}
}

func TestFetchServesFreshWithoutRefetch(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	fetch := countingFetcher(&calls, 0)
	key := query.Key("customers::page:1")

	if _, err := s.Fetch(context.Background(), key, fetch); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	snap, err := s.Fetch(context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if snap.Status != query.StatusSuccess {
		t.Errorf("expected success, got %v", snap.Status)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fresh entry should not refetch, got %d calls", got)
	}
}

func TestSubscribeDeliversData(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "reviews::page:1", countingFetcher(&calls, 0), query.Options{})
	defer sub.Close()

	snap := waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })
	if snap.Data != int64(1) {
		t.Errorf("expected first fetch result, got %v", snap.Data)
	}
	if snap.Stale {
		t.Error("fresh result must not be stale")
	}
}

func TestSubscribeDisabledDoesNotFetch(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "tours::x", countingFetcher(&calls, 0), query.Options{Disabled: true})
	defer sub.Close()

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("disabled subscription must not fetch, got %d calls", got)
	}
	if snap := sub.Snapshot(); snap.Status != query.StatusPending {
		t.Errorf("expected pending snapshot, got %v", snap.Status)
	}
}

func TestInvalidateRefetchesWatchedEntries(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "facilities::page:1", countingFetcher(&calls, 0), query.Options{})
	defer sub.Close()

	waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })

	s.Invalidate("facilities")

	snap := waitSnapshot(t, sub, func(s query.Snapshot) bool {
		return s.Status == query.StatusSuccess && s.Data == int64(2)
	})
	if snap.Stale {
		t.Error("refetched entry must not be stale")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 backend calls, got %d", got)
	}
}

func TestInvalidateOtherFamilyUntouched(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "facilities::page:1", countingFetcher(&calls, 0), query.Options{})
	defer sub.Close()
	waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })

	s.Invalidate("customers")

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("unrelated invalidation must not refetch, got %d calls", got)
	}
}

func TestInvalidateDuringFlightDiscardsResult(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	release := make(chan struct{})
	var calls atomic.Int64
	fetch := func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if n == 1 {
			<-release
		}
		return n, nil
	}

	sub := s.Subscribe(context.Background(), "facilities::page:1", fetch, query.Options{})
	defer sub.Close()

	// Invalidate while the first fetch is still blocked, then let it finish.
	// Its result is already outdated and must never become visible.
	time.Sleep(20 * time.Millisecond)
	s.Invalidate("facilities")
	close(release)

	snap := waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })
	if snap.Data != int64(2) {
		t.Errorf("expected the post-invalidation result, got %v", snap.Data)
	}
}

func TestFailedRefetchKeepsData(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	boom := errors.New("backend down")
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) > 1 {
			return nil, boom
		}
		return "page-data", nil
	}

	sub := s.Subscribe(context.Background(), "payments::page:1", fetch, query.Options{})
	defer sub.Close()
	waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })

	s.Invalidate("payments")

	snap := waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusError })
	if snap.Data != "page-data" {
		t.Errorf("previous data must survive a failed refetch, got %v", snap.Data)
	}
	if !errors.Is(snap.Err, boom) {
		t.Errorf("expected fetch error, got %v", snap.Err)
	}
}

func TestFetchPropagatesError(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	boom := errors.New("backend down")
	snap, err := s.Fetch(context.Background(), "blogs::page:1", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if snap.Status != query.StatusError {
		t.Errorf("expected error status, got %v", snap.Status)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Fetch(ctx, "faqs::page:1", func(ctx context.Context) (any, error) {
			time.Sleep(time.Second)
			return nil, nil
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Fetch did not honor context cancellation")
	}
}

func TestStaleTimeTriggersBackgroundRefetch(t *testing.T) {
	s := newTestStore(t, query.Config{StaleTime: 30 * time.Millisecond, GCGrace: time.Minute})

	var calls atomic.Int64
	fetch := countingFetcher(&calls, 0)
	key := query.Key("facilities::page:1")

	if _, err := s.Fetch(context.Background(), key, fetch); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	// Past the freshness window the old data is served immediately while a
	// refetch runs in the background.
	snap, err := s.Fetch(context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("stale fetch failed: %v", err)
	}
	if snap.Data != int64(1) {
		t.Errorf("stale hit should serve the old data, got %v", snap.Data)
	}
	if !snap.Stale {
		t.Error("snapshot past the freshness window must be marked stale")
	}

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("background refetch never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestGCEvictsUnreferencedEntries(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: 30 * time.Millisecond})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "facilities::page:1", countingFetcher(&calls, 0), query.Options{})
	waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })

	sub.Close()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("entry not evicted after grace, Len=%d", s.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestResubscribeWithinGraceKeepsEntry(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: 200 * time.Millisecond})

	var calls atomic.Int64
	fetch := countingFetcher(&calls, 0)
	key := query.Key("facilities::page:1")

	sub := s.Subscribe(context.Background(), key, fetch, query.Options{})
	waitSnapshot(t, sub, func(s query.Snapshot) bool { return s.Status == query.StatusSuccess })
	sub.Close()

	// A new subscriber inside the grace window adopts the cached entry.
	sub2 := s.Subscribe(context.Background(), key, fetch, query.Options{})
	defer sub2.Close()

	time.Sleep(300 * time.Millisecond)
	if s.Len() != 1 {
		t.Errorf("referenced entry must survive the grace window, Len=%d", s.Len())
	}
	if snap := sub2.Snapshot(); snap.Data != int64(1) {
		t.Errorf("second subscriber should see cached data without refetch, got %v", snap.Data)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single backend call, got %d", got)
	}
}

func TestCloseIsIdempotentPerSubscription(t *testing.T) {
	s := newTestStore(t, query.Config{GCGrace: time.Minute})

	var calls atomic.Int64
	sub := s.Subscribe(context.Background(), "k", countingFetcher(&calls, 0), query.Options{})
	sub.Close()
	sub.Close() // must not double-decrement
}
