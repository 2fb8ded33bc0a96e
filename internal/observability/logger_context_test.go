package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRoundTrip(t *testing.T) {
	t.Parallel()
	lg := slog.Default().With(slog.String("request_id", "r1"))

	ctx := ContextWithLogger(context.Background(), lg)
	assert.Same(t, lg, LoggerFromContext(ctx))

	// Nil logger must not wipe an already-attached one.
	assert.Same(t, lg, LoggerFromContext(ContextWithLogger(ctx, nil)))
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	t.Parallel()
	assert.Same(t, slog.Default(), LoggerFromContext(context.Background()))
	assert.Same(t, slog.Default(), LoggerFromContext(nil)) //nolint:staticcheck // nil context is the case under test
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := ContextWithRequestID(context.Background(), "01J5ZX5W9K")
	assert.Equal(t, "01J5ZX5W9K", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestContextWithRequestID_EmptyLeavesContext(t *testing.T) {
	t.Parallel()
	base := context.Background()
	assert.Equal(t, base, ContextWithRequestID(base, ""))
}
