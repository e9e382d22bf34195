package resource

import (
	"context"
	"testing"
	"time"

	"github.com/fsdteam8/lowready-dashboard-sub000/internal/entitycache"
	"github.com/fsdteam8/lowready-dashboard-sub000/internal/querystore"
	"github.com/fsdteam8/lowready-dashboard-sub000/pkg/testsupport"
	"github.com/fsdteam8/lowready-dashboard-sub000/query"
	"github.com/fsdteam8/lowready-dashboard-sub000/rest"
)

func newCachedClient(t *testing.T) (*Cached[Facility], *testsupport.FakeAPI, query.Cache) {
	t.Helper()
	backend := testsupport.NewFakeAPI()
	t.Cleanup(backend.Close)

	rc, err := rest.New(backend.URL())
	if err != nil {
		t.Fatalf("failed to create rest client: %v", err)
	}

	queries, err := querystore.New(query.Config{GCGrace: time.Minute})
	if err != nil {
		t.Fatalf("failed to create query cache: %v", err)
	}
	t.Cleanup(queries.Close)

	entities, err := entitycache.New(entitycache.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create record cache: %v", err)
	}

	client := NewClient[Facility](rc, FamilyFacilities)
	return NewCached(client, queries, entities, query.NewDefaultKeySerializer()), backend, queries
}

func TestCachedListServesFromCache(t *testing.T) {
	cached, backend, _ := newCachedClient(t)
	backend.Seed(FamilyFacilities, testsupport.FacilityRecords(3, StatusApproved)...)

	p := Params{Page: 1, Limit: 10}
	first, err := cached.List(context.Background(), p)
	if err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	second, err := cached.List(context.Background(), p)
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}

	if len(first.Items) != 3 || len(second.Items) != 3 {
		t.Errorf("unexpected item counts %d/%d", len(first.Items), len(second.Items))
	}
	if got := backend.ListCalls(FamilyFacilities); got != 1 {
		t.Errorf("expected one backend call for repeated list, got %d", got)
	}
}

func TestCachedListRefetchesAfterInvalidation(t *testing.T) {
	cached, backend, queries := newCachedClient(t)
	backend.Seed(FamilyFacilities, testsupport.FacilityRecords(3, StatusApproved)...)

	p := Params{Page: 1, Limit: 10}
	if _, err := cached.List(context.Background(), p); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	backend.Seed(FamilyFacilities, testsupport.FacilityRecords(5, StatusApproved)...)
	queries.Invalidate(FamilyFacilities)

	// Stale entries serve old data while revalidating, so poll until the
	// refetch lands.
	deadline := time.After(2 * time.Second)
	for {
		page, err := cached.List(context.Background(), p)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(page.Items) == 5 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("refetch never landed, still %d items", len(page.Items))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCachedListNormalizesKey(t *testing.T) {
	cached, backend, _ := newCachedClient(t)
	backend.Seed(FamilyFacilities, testsupport.FacilityRecords(2, StatusApproved)...)

	// Zero params and explicit defaults describe the same request and must
	// share one cache entry.
	if _, err := cached.List(context.Background(), Params{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := cached.List(context.Background(), Params{Page: 1, Limit: DefaultLimit}); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if got := backend.ListCalls(FamilyFacilities); got != 1 {
		t.Errorf("normalized params must share a key, got %d backend calls", got)
	}
	if cached.ListKey(Params{}) != cached.ListKey(Params{Page: 1, Limit: DefaultLimit}) {
		t.Error("normalized keys differ")
	}
}

func TestCachedGetUsesRecordCache(t *testing.T) {
	cached, backend, _ := newCachedClient(t)
	record := testsupport.FacilityRecord("Oak Ridge", StatusApproved)
	backend.Seed(FamilyFacilities, record)
	id := record["_id"].(string)

	first, err := cached.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// Remove the backing record; the cached copy still answers.
	backend.Seed(FamilyFacilities)

	second, err := cached.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if first.ID != second.ID || second.Name != "Oak Ridge" {
		t.Errorf("expected cached record, got %+v", second)
	}
}
