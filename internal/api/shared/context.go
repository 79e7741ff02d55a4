package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of request-scoped values set by this package.
type ContextKey string

// Context keys for various values
const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// ClaimsContextKey holds the validated token claims of the caller
	ClaimsContextKey ContextKey = "claims"

	// TraceIDLength is the number of hex characters in a generated trace ID
	TraceIDLength = 32
)

// SetTraceID adds a trace ID to the context. A non-empty incoming ID, such as
// a request ID assigned upstream, is reused so logs correlate across hops.
func SetTraceID(ctx context.Context, incoming string) context.Context {
	traceID := strings.TrimSpace(incoming)
	if traceID == "" {
		traceID = generateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID returns a random 32-character hex string.
func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
