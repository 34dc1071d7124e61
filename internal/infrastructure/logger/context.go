package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	teamIDKey    contextKey = "team_id"
	userIDKey    contextKey = "user_id"
)

// WithContext returns a new context carrying the logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID and returns the enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithTeamID stores the acting team and returns the enriched logger
func WithTeamID(ctx context.Context, logger *zap.Logger, teamID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, teamIDKey, teamID)
	enriched := logger.With(zap.String("team_id", teamID))
	return WithContext(ctx, enriched), enriched
}

// WithUserID stores the acting user and returns the enriched logger
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, userIDKey, userID)
	enriched := logger.With(zap.String("user_id", userID))
	return WithContext(ctx, enriched), enriched
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID returns the request ID stored in ctx
func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// GetTeamID returns the team ID stored in ctx
func GetTeamID(ctx context.Context) string { return stringValue(ctx, teamIDKey) }

// GetUserID returns the user ID stored in ctx
func GetUserID(ctx context.Context) string { return stringValue(ctx, userIDKey) }

// GetTraceID returns the active span's trace ID, or "" when there is none
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// WithTraceContext adds trace_id and span_id from ctx's span to logger
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// L returns the context logger with trace_id and span_id attached.
// It never returns nil.
func L(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return WithTraceContext(ctx, l)
	}
	return zap.NewNop()
}

// Fields returns request, team and user fields present in ctx
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetTeamID(ctx); v != "" {
		fields = append(fields, zap.String("team_id", v))
	}
	if v := GetUserID(ctx); v != "" {
		fields = append(fields, zap.String("user_id", v))
	}
	if v := GetTraceID(ctx); v != "" {
		fields = append(fields, zap.String("trace_id", v))
	}
	return fields
}
