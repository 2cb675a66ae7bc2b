package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))
}

func TestFromContext_Fallback(t *testing.T) {
	// No logger in context returns the default, never nil
	assert.NotNil(t, FromContext(context.Background()))
}

func TestL_AttachesRequestID(t *testing.T) {
	logger := New("debug", "text")
	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")

	// Must not panic and must return a usable logger
	L(ctx).Debug("test message")
}

func TestNew_LevelParsing(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "bogus"} {
		assert.NotNil(t, New(lvl, "json"))
	}
}
