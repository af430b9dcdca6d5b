package middleware

import (
	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/config"
	"treasurehunt/backend/utils"
)

const claimsKey = "claims"

// Claims returns the token claims stored by AuthMiddleware.
func Claims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(claimsKey).(*utils.Claims)
	return claims
}

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// PlayerMiddleware admits player tokens that carry a game session.
func PlayerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil || claims.Role != utils.RolePlayer || claims.SessionID == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden - Player session required",
			})
		}
		return c.Next()
	}
}

// AdminMiddleware admits admin tokens. With no admin password configured no
// token is admitted, whoever signed it.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if !cfg.AdminEnabled() || claims == nil || claims.Role != utils.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden - Admin access required",
			})
		}
		return c.Next()
	}
}
