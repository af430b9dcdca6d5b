package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/metrics"
)

// MetricsMiddleware records latency per route pattern, so path parameters
// do not explode the label space.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.RequestStarted()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		m.RequestFinished(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
