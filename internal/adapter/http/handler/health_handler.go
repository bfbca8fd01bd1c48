package handler

import (
	"context"
	"net/http"
	"time"

	"shared-account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and dependency health.
type HealthHandler struct {
	checkers []ports.HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checkers ...ports.HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Check handles GET /health. Each dependency is probed with a short
// timeout; any failure degrades the overall status to 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))
	for _, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			deps[checker.Name()] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[checker.Name()] = "healthy"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
		"timestamp":    time.Now().UTC(),
	})
}
