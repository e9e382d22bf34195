package resource

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultLimit is the page size used when a caller does not set one.
const DefaultLimit = 10

// MaxLimit caps the page size a single request may ask for.
const MaxLimit = 100

// Params are the list-query parameters shared by every resource family.
// All filters combine by logical AND; free-text search is a filter like any
// other. Sorting and filtering are always server-side: the backend sees the
// full result set, so order and matches are never page-local.
type Params struct {
	Page   int
	Limit  int
	Status string
	Search string
	SortBy string
	From   time.Time
	To     time.Time
}

// Normalize fills defaults for unset pagination fields.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Validate checks the parameters before any network call is made.
// Violations are reported as a *ValidationError and never reach the backend.
func (p Params) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.Min(1)),
		validation.Field(&p.Limit, validation.Min(1), validation.Max(MaxLimit)),
		validation.Field(&p.To, validation.By(func(any) error {
			if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
				return fmt.Errorf("must not be before From")
			}
			return nil
		})),
	)
	if err == nil {
		return nil
	}
	return newValidationError(err)
}

// QueryString renders the parameters as a URL query, starting with '?'.
// Fields appear in a fixed order so the same parameters always produce the
// same request line.
func (p Params) QueryString() string {
	p = p.Normalize()

	values := url.Values{}
	values.Set("page", strconv.Itoa(p.Page))
	values.Set("limit", strconv.Itoa(p.Limit))
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.SortBy != "" {
		values.Set("sortBy", p.SortBy)
	}
	if !p.From.IsZero() {
		values.Set("from", p.From.UTC().Format(time.RFC3339))
	}
	if !p.To.IsZero() {
		values.Set("to", p.To.UTC().Format(time.RFC3339))
	}
	return "?" + values.Encode()
}

// ValidationError reports local, pre-submission violations. It never comes
// from the network.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError converts an ozzo validation result into the module's
// error taxonomy.
func newValidationError(err error) *ValidationError {
	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
	} else {
		fields["_"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}

// validatePayload runs ozzo validation when the payload opts into it.
// Payload types declare their own rules by implementing
// validation.Validatable.
func validatePayload(payload any) error {
	v, ok := payload.(validation.Validatable)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return newValidationError(err)
	}
	return nil
}
