package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies batch_id, policy and date_to from the event context
// onto the log event. Events logged without .Ctx(ctx) are unchanged.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if batchID := GetBatchID(ctx); batchID != "" {
		e.Str("batch_id", batchID)
	}
	if l, ok := GetLookup(ctx); ok {
		e.Str("policy", l.Policy).Str("date_to", l.DateTo)
	}
}
