package middleware

import (
	"context"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling tags profile samples taken while a request runs with its
// method, route pattern and team. Place it after JWT authentication so the
// team is known.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return noop
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelTeamID: c.GetString(logger.GinTeamIDKey),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
