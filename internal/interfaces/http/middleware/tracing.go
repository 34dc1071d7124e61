package middleware

import (
	"net/http"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request through otelgin
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return noop
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher must run after Tracing. Once the rest of the chain has run,
// it tags the open server span with request, team and user IDs and marks
// 4xx/5xx responses as failed.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := c.GetString(logger.GinRequestIDKey); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if teamID := c.GetString(logger.GinTeamIDKey); teamID != "" {
		span.SetAttributes(attribute.String("team_id", teamID))
	}
	if userID := c.GetString(logger.GinUserIDKey); userID != "" {
		span.SetAttributes(attribute.String("user_id", userID))
	}

	status := c.Writer.Status()
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
