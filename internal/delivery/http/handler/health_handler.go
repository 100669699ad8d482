package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports service liveness and cache reachability.
type HealthHandler struct {
	cache  HealthChecker
	logger *zap.Logger
}

// NewHealthHandler builds the handler; cache may be nil when running without Redis.
func NewHealthHandler(cache HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cache:  cache,
		logger: logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	cacheStatus := "disabled"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Context(), time.Second)
		defer cancel()

		cacheStatus = "ok"
		if err := h.cache.Health(ctx); err != nil {
			h.logger.Warn("Cache health check failed", zap.Error(err))
			cacheStatus = "unavailable"
		}
	}

	return c.JSON(fiber.Map{
		"status": "healthy",
		"cache":  cacheStatus,
		"time":   time.Now().UTC(),
	})
}
