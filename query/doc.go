// Package query defines the public surface of the list-query cache: keys,
// snapshots, subscriptions, and the key serialization strategy.
//
// # Overview
//
// Every list page in the dashboard reads through this cache. A page derives a
// Key from its resource family and parameters, subscribes to that key, and
// renders whatever Snapshot the cache holds. The cache guarantees:
//
//   - Deterministic keys: structurally equal parameters always serialize to
//     the same Key, so lookups are stable across call sites.
//   - Single-flight: at most one fetch is in flight per key; concurrent
//     subscribers share the same network call and its result.
//   - Stale-while-revalidate: stale entries are served immediately while a
//     background refetch runs, so pagination never flickers.
//   - Last-request-wins: a result that lands after its entry was invalidated
//     is discarded and refetched, never rendered.
//   - Failure keeps data: a failed refetch moves the entry to StatusError but
//     the previously fetched payload stays available.
//
// The engine lives in internal/querystore; construct it through pkg/di.
//
// # Keys
//
// Keys are flat strings of "::"-separated segments whose first segment is the
// resource family. Invalidation matches on that family prefix:
//
//	serializer := query.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("facilities", params)
//	// => facilities::struct:{Page:2,Limit:10,Status:approved,...}
//
// Overlong keys are digested with xxhash while preserving the family segment,
// so prefix invalidation keeps working regardless of parameter size.
//
// # Subscriptions
//
// Subscribe registers a consumer against a key. The returned Subscription
// yields the current Snapshot synchronously and pushes fresh ones through
// Updates. Closing the subscription releases the entry; entries nobody holds
// are garbage collected after a grace period.
package query
