package mutation

import "context"

type invalidationsContextKey struct{}

// WithInvalidations attaches additional resource families to the context.
// They are merged with the Options.Invalidates of any mutation executed with
// that context. Pages with cross-cutting side effects (an approval that also
// changes dashboard counters, say) use this instead of widening every
// call site's declaration.
func WithInvalidations(ctx context.Context, families ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(families) == 0 {
		return ctx
	}

	combined := dedupe(append(invalidationsFromContext(ctx), families...))
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, invalidationsContextKey{}, combined)
}

func invalidationsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if families, ok := ctx.Value(invalidationsContextKey{}).([]string); ok {
		return append([]string(nil), families...)
	}
	return nil
}
