package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

func LoggingMiddleware(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		user := "-"
		if claims := Claims(c); claims != nil {
			user = claims.Role
			if claims.Username != "" {
				user = claims.Username
			}
		}

		logger.Printf(
			"%s %s %s %s %d %v",
			c.IP(),
			user,
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
		)

		return err
	}
}
