package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := setupRecorder(t)

	router := gin.New()
	router.Use(TracingMiddleware("quote-api"))
	router.GET("/properties/:id/calendar", func(c *gin.Context) {
		_ = c.Error(errors.New("marketplace down"))
		c.Status(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/properties/prop-7/calendar", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Header().Get(TraceIDHeader))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /properties/:id/calendar", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("property.id", "prop-7"))
	assert.Contains(t, span.Attributes(), attribute.Int("http.status_code", http.StatusBadGateway))
}

func TestTracingMiddleware_ClientErrorIsNotSpanError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := setupRecorder(t)

	router := gin.New()
	router.Use(TracingMiddleware("quote-api"))
	router.POST("/quotes", func(c *gin.Context) { c.Status(http.StatusConflict) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quotes", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
}

func TestStartSpan_Disabled(t *testing.T) {
	_, err := Init(context.Background(), &Config{Enabled: false, ServiceName: "quote-api"})
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "service.quote.quote")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestSetSpanError(t *testing.T) {
	recorder := setupRecorder(t)
	_, span := otel.Tracer("test").Start(context.Background(), "op")
	SetSpanError(span, nil)
	SetSpanError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestInjectHTTP(t *testing.T) {
	setupRecorder(t)
	ctx, span := otel.Tracer("test").Start(context.Background(), "outbound")
	defer span.End()

	header := http.Header{}
	InjectHTTP(ctx, header)
	assert.Contains(t, header.Get("traceparent"), span.SpanContext().TraceID().String())
}
