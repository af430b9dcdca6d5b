package controllers

import (
	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/remote"
	"treasurehunt/backend/service"
)

const (
	remoteUp       = "up"
	remoteDown     = "down"
	remoteDisabled = "disabled"
)

type HealthController struct {
	Client *remote.Client
	Game   *service.GameService
}

func NewHealthController(client *remote.Client, game *service.GameService) *HealthController {
	return &HealthController{Client: client, Game: game}
}

// Health reports liveness, the remote API status and where the question bank
// was loaded from. A remote outage does not make the server unhealthy.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := remoteDisabled
	if hc.Client != nil {
		status = remoteDown
		if hc.Client.CheckStatus(c.UserContext()) {
			status = remoteUp
		}
	}
	return c.JSON(fiber.Map{
		"status":           "ok",
		"remote":           status,
		"questions_source": hc.Game.QuestionSource(),
	})
}
