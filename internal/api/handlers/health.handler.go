package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/pkg/lock"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

type HealthHandler struct {
	locker lock.Locker
	logger logger.Logger
}

func NewHealthHandler(locker lock.Locker, logger logger.Logger) *HealthHandler {
	return &HealthHandler{locker: locker, logger: logger}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   config.ServiceName,
		"version":   config.ServiceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - ready once config is loaded and the lock backend answers
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"config": "ok", "lock": "ok"}
	status, httpStatus := "ready", http.StatusOK

	if err := h.locker.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", "component", "lock", "error", err)
		checks["lock"] = err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"service":   config.ServiceName,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
