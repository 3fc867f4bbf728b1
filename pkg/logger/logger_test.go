package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log, err := New("debug", true)
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, log, InfoLogger)
	assert.NotPanics(t, func() { Error("closing %s", "tracer") })
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud", false)
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestError_UsesProcessLogger(t *testing.T) {
	prev := InfoLogger
	t.Cleanup(func() { InfoLogger = prev })

	core, logs := observer.New(zapcore.ErrorLevel)
	InfoLogger = zap.New(core)

	Error("Error closing Jaeger tracer: %v", "io: closed pipe")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Error closing Jaeger tracer: io: closed pipe", entries[0].Message)
}
