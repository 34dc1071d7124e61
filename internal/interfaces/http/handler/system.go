package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// readinessTimeout bounds the whole readiness probe
const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    []ReadinessCheck
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, checks ...ReadinessCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// HealthResponse is the body of the liveness and readiness probes
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   string            `json:"time" example:"2024-03-01T10:00:00Z"`
	Checks map[string]string `json:"checks,omitempty"`
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name       string `json:"name" example:"salesledger"`
	Version    string `json:"version" example:"1.0.0"`
	GoVersion  string `json:"go_version" example:"go1.25.5"`
	Uptime     string `json:"uptime" example:"1h30m45s"`
	CostMethod string `json:"cost_method,omitempty" example:"lot_weighted_average"`
}

// Health godoc
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Runs every dependency check; any failure answers 503
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed",
				zap.String("check", check.Name),
				zap.Error(err),
			)
			results[check.Name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "ok"
	}

	resp := HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Checks: results,
	}
	if status != http.StatusOK {
		resp.Status = "unavailable"
	}
	c.JSON(status, resp)
}

// Info godoc
// @Summary      Get system information
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Security     BearerAuth
// @Router       /system/info [get]
func (h *SystemHandler) Info(costMethod string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
			Name:       h.name,
			Version:    h.version,
			GoVersion:  runtime.Version(),
			Uptime:     time.Since(h.startTime).Round(time.Second).String(),
			CostMethod: costMethod,
		}))
	}
}
