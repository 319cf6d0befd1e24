package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level       string
		development bool
		want        zapcore.Level
	}{
		{"debug", false, zapcore.DebugLevel},
		{"WARN", false, zapcore.WarnLevel},
		{"error", true, zapcore.ErrorLevel},
		{"development", true, zapcore.DebugLevel},
		{"production", false, zapcore.InfoLevel},
		{"", false, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.level, tt.development), "level %q", tt.level)
	}
}

func TestGet_BeforeInitIsNop(t *testing.T) {
	mu.Lock()
	global = nil
	mu.Unlock()

	l := Get()
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(&Config{Level: "info", ServiceName: "quote-api"}))
	assert.NotNil(t, Get().Logger)
	Sync()
}

func TestErrorContext_AddsTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{Logger: zap.New(core)}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	l.ErrorContext(ctx, "marketplace call failed", zap.String("property_id", "p1"))
	l.WarnContext(context.Background(), "no trace")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entries[0].ContextMap()["trace_id"])
	assert.Equal(t, "p1", entries[0].ContextMap()["property_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}
