package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()

	// Verify no trace ID in original context
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx, "")
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, TraceIDLength)

	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err, "Expected valid hex string")

	// Original context should remain unchanged
	assert.Empty(t, GetTraceID(ctx))
}

func TestSetTraceIDKeepsIncoming(t *testing.T) {
	ctx := SetTraceID(context.Background(), " upstream-id ")
	assert.Equal(t, "upstream-id", GetTraceID(ctx))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestGenerateTraceIDUnique(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.Len(t, id, TraceIDLength)
		assert.False(t, seen[id], "Expected all trace IDs to be unique")
		seen[id] = true
	}
}
