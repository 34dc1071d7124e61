package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	previous := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(previous)
	})
	return sr
}

func serverSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.SpanKind() == trace.SpanKindServer {
			return span
		}
	}
	require.FailNow(t, "server span not found")
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false, ServiceName: "sales"}), SpanEnricher())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_EnrichesServerSpan(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID(), Tracing(TracingConfig{Enabled: true, ServiceName: "sales"}), SpanEnricher())
	router.GET("/api/v1/sales/:id", func(c *gin.Context) {
		c.Set(logger.GinTeamIDKey, "team-1")
		c.Set(logger.GinUserIDKey, "user-1")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/42", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	serve(router, req)

	span := serverSpan(t, sr)
	attrs := spanAttrs(span)
	assert.Equal(t, "req-123", attrs["request_id"].AsString())
	assert.Equal(t, "team-1", attrs["team_id"].AsString())
	assert.Equal(t, "user-1", attrs["user_id"].AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_MarksClientErrors(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "sales"}), SpanEnricher())
	router.POST("/api/v1/sales", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil))

	span := serverSpan(t, sr)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, http.StatusText(http.StatusUnprocessableEntity), span.Status().Description)
}
