// Package resource defines the typed REST surface of the dashboard data
// core: the record types, the per-family client, and the cache-backed reader.
//
// # Overview
//
// Every resource family (facilities, customers, reviews, ...) exposes the
// same operation set, so one generic client covers them all:
//
//   - List: one page of the collection, filtered and sorted server-side
//   - Get: a single record by id
//   - Create, Update, Delete: the usual write operations
//   - UpdateStatus: the status transition endpoint (approve, decline, ...)
//
// # Basic Usage
//
// Bind a client to a family and call the operation you need:
//
//	facilities := resource.NewClient[resource.Facility](rc, resource.FamilyFacilities)
//	page, err := facilities.List(ctx, resource.Params{Page: 2, Status: resource.StatusPending})
//
// For cached reads, wrap the client:
//
//	cached := resource.NewCached(facilities, queries, entities, keys)
//	page, err := cached.List(ctx, resource.Params{Page: 2})
//
// # Families and Cache Keys
//
// FamilyOf derives the family from a record name ("Facility" becomes
// "facilities"). The family is both the URL collection segment and the
// prefix of every cache key for that resource, which is what makes
// family-wide invalidation after a mutation a prefix match.
//
// # Validation
//
// Params.Validate and payloads implementing validation.Validatable are
// checked locally before any request goes out. A *ValidationError therefore
// always means the request never reached the backend.
package resource
