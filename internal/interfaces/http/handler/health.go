package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse is the probe result
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   string            `json:"time" example:"2026-10-19T12:00:00Z"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. Each named check must answer
// within two seconds for the service to be ready.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Live godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Pings the database and the cache
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	resp.Time = time.Now().UTC().Format(time.RFC3339)

	c.JSON(status, resp)
}
