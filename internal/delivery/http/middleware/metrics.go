package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quakemap/internal/pkg/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		// route is resolved only after Next
		m.ObserveHTTP(c.Route().Path, c.Method(), status, time.Since(start))
		return err
	}
}
