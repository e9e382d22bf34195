package resource

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/fsdteam8/lowready-dashboard-sub000/rest"
)

// PageOf is one decoded page of a list endpoint: the records plus the
// normalized pagination block.
type PageOf[T any] struct {
	Items   []T
	Meta    rest.Meta
	Message string
}

// Result is the outcome of a write operation: the affected record (when the
// backend returns one) and the human-readable message for the notification.
type Result[T any] struct {
	Record  T
	Message string
}

// decodeList unmarshals a list envelope and normalizes its meta block.
// Endpoint shapes vary slightly across the backend; normalizing here keeps
// that variance out of the cache and controller layers.
func decodeList[T any](env *rest.Envelope, limit int) (PageOf[T], error) {
	page := PageOf[T]{Message: env.Message}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &page.Items); err != nil {
			return PageOf[T]{}, fmt.Errorf("decode list payload: %w", err)
		}
	}

	if env.Meta != nil {
		page.Meta = *env.Meta
	}
	page.Meta = normalizeMeta(page.Meta, limit, len(page.Items))
	return page, nil
}

// normalizeMeta fills in fields individual endpoints omit. Every list
// endpoint returns a total sufficient to compute total pages given the
// request limit.
func normalizeMeta(meta rest.Meta, limit, itemCount int) rest.Meta {
	if meta.Page < 1 {
		meta.Page = 1
	}
	if meta.Total == 0 && itemCount > 0 {
		meta.Total = itemCount
	}
	if meta.TotalPages == 0 {
		if limit < 1 {
			limit = DefaultLimit
		}
		meta.TotalPages = (meta.Total + limit - 1) / limit
	}
	return meta
}

// decodeOne unmarshals a single-record envelope.
func decodeOne[T any](env *rest.Envelope) (T, error) {
	var record T
	if len(env.Data) == 0 {
		return record, nil
	}
	if err := json.Unmarshal(env.Data, &record); err != nil {
		return record, fmt.Errorf("decode record payload: %w", err)
	}
	return record, nil
}
