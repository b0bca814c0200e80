package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Pinger is anything the health check can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db    Pinger
	redis Pinger
	now   func() time.Time
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthHandler takes the database probe and an optional redis probe (nil when disabled)
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		now:   time.Now,
	}
}

// HealthCheck reports the database and redis state. Only the database decides the status code.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthCheckResponse{
		Status:    statusHealthy,
		Version:   constants.AppVersion,
		Timestamp: h.now(),
		Checks:    make(map[string]HealthCheck),
	}

	dbStatus := probe(ctx, "database", h.db)
	response.Checks["database"] = dbStatus
	if dbStatus.Status != statusHealthy {
		response.Status = statusUnhealthy
	}

	// Redis falls back to the in-memory store, so it never fails the check
	response.Checks["redis"] = probe(ctx, "redis", h.redis)

	statusCode := http.StatusOK
	if response.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

// BasicHealth returns a simple health check (for load balancers)
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    statusHealthy,
		"version":   constants.AppVersion,
		"timestamp": h.now(),
	})
}

func probe(ctx context.Context, name string, p Pinger) HealthCheck {
	if p == nil {
		return HealthCheck{Status: statusDisabled, Message: fmt.Sprintf("%s is disabled", name)}
	}

	if err := p.Ping(ctx); err != nil {
		logger.GetLogger().Warn("Health probe failed", zap.String("component", name), zap.Error(err))
		return HealthCheck{Status: statusUnhealthy, Message: fmt.Sprintf("%s ping failed", name)}
	}

	return HealthCheck{Status: statusHealthy}
}
