package handlers

import (
	"net/http"

	"github.com/Ayash-Bera/nearby/internal/health"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Liveness())
}

// Readiness answers 503 only when a dependency is down; missing keys still serve.
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := h.checker.Readiness(c.Request.Context())
	code := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
