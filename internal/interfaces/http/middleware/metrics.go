// Package middleware provides the gin middleware chain of the sales API.
package middleware

import (
	"time"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	Logger        *zap.Logger
}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	requestSize     *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

var sizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	requestSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_size_bytes",
		Description: "HTTP request body size distribution in bytes",
		Unit:        "By",
		Boundaries:  sizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  sizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestSize:     requestSize,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

func noop(c *gin.Context) { c.Next() }

// HTTPMetrics returns a middleware that records request count, latency,
// body sizes and in-flight requests. Routes are recorded by pattern.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return noop
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), cfg.Logger)
}

// HTTPMetricsWithMeter builds the metrics middleware on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return noop
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		requestSize := c.Request.ContentLength

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		baseAttrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}

		requestAttrs := append([]attribute.KeyValue{
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
		}, baseAttrs...)
		if teamID := c.GetString(logger.GinTeamIDKey); teamID != "" {
			requestAttrs = append(requestAttrs, telemetry.AttrTeamID.String(teamID))
		}
		metrics.requestTotal.Inc(ctx, requestAttrs...)
		metrics.requestDuration.RecordDuration(ctx, time.Since(start), baseAttrs...)

		if requestSize > 0 {
			metrics.requestSize.Record(ctx, float64(requestSize), baseAttrs...)
		}
		if size := c.Writer.Size(); size > 0 {
			metrics.responseSize.Record(ctx, float64(size), baseAttrs...)
		}
	}
}

// StatusGroup buckets a status code into its class
func StatusGroup(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}
