package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// traceKey is the context key for trace IDs. An unexported struct type
// keeps the key collision-free.
type traceKey struct{}

// TraceIDField is the log field name carrying the trace ID.
const TraceIDField = "trace_id"

// NewTraceID returns a fresh ULID string. ULIDs sort lexically by
// creation time, which keeps log greps for a trace chronologically
// ordered.
func NewTraceID() string {
	return ulid.Make().String()
}

// ContextWithTraceID returns a copy of ctx carrying the given trace ID.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext extracts the trace ID from ctx. The second return
// is false when no trace ID was attached.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(traceKey{}).(string)
	return id, ok
}

// GetOrGenerateTraceID returns the trace ID attached to ctx, generating
// and attaching a new one when absent. Callers use the returned context
// for downstream work so the ID propagates.
func GetOrGenerateTraceID(ctx context.Context) (context.Context, string) {
	if id, ok := TraceIDFromContext(ctx); ok {
		return ctx, id
	}
	id := NewTraceID()
	return ContextWithTraceID(ctx, id), id
}
