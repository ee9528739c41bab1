// Package logging carries lookup identifiers through context.Context so
// that log lines written deep inside the lookup client can be tied back to
// the batch or form submission that caused them.
package logging

import "context"

type contextKey string

const (
	batchIDKey contextKey = "batch_id"
	lookupKey  contextKey = "lookup"
)

// Lookup identifies one submission.
type Lookup struct {
	Policy string
	DateTo string
}

// WithBatchID adds a batch ID to the context.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey, batchID)
}

// WithLookup adds the submitted policy and date to the context.
func WithLookup(ctx context.Context, policy, dateTo string) context.Context {
	return context.WithValue(ctx, lookupKey, Lookup{Policy: policy, DateTo: dateTo})
}

// GetBatchID returns the batch ID, or "" when not set.
func GetBatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey).(string); ok {
		return id
	}
	return ""
}

// GetLookup returns the submission stored in ctx.
func GetLookup(ctx context.Context) (Lookup, bool) {
	l, ok := ctx.Value(lookupKey).(Lookup)
	return l, ok
}
