// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	terminal  *service.TerminalService
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(terminal *service.TerminalService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		terminal:  terminal,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
	}
}

// HealthCheck performs general health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	snapshot := h.terminal.Status()

	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	// Session check: a closed session is still a healthy service
	sessionStatus := "closed"
	if snapshot.Open {
		sessionStatus = "open"
	}
	health.Checks["session"] = CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"state":    sessionStatus,
			"rx_bytes": snapshot.RXBytes,
			"tx_bytes": snapshot.TXBytes,
		},
	}

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck for orchestrator readiness probes
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for orchestrator liveness probes
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	// Simple liveness check - service is alive if it can respond
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
