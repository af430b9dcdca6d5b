package controllers

import (
	"log"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/remote"
	"treasurehunt/backend/utils"
)

// ProgressController shows the progress records the remote API holds for
// every player. It needs a remote admin token, see RemoteTokenHeader.
type ProgressController struct {
	Client *remote.Client
	Logger *log.Logger
}

func NewProgressController(client *remote.Client, logger *log.Logger) *ProgressController {
	return &ProgressController{Client: client, Logger: logger}
}

// GetAllProgress godoc
// @Summary Remote progress of every player
// @Description Returns the remote progress records, optionally filtered by username substring and level number
// @Tags admin
// @Produce json
// @Param username query string false "username substring"
// @Param level query int false "level number"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/progress [get]
func (pc *ProgressController) GetAllProgress(c *fiber.Ctx) error {
	if pc.Client == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "remote API is not configured"))
	}
	token := c.Get(RemoteTokenHeader)
	if token == "" {
		return utils.Unauthorized(c, "Missing "+RemoteTokenHeader+" header")
	}
	level := c.QueryInt("level", 0)
	if level < 0 {
		return utils.BadRequest(c, "level must be positive")
	}

	records, err := pc.Client.AllProgress(c.UserContext(), token)
	if err != nil {
		return respondRemote(c, pc.Logger, err)
	}

	search := strings.ToLower(c.Query("username"))
	filtered := make([]remote.ProgressRecord, 0, len(records))
	for _, r := range records {
		if search != "" && !strings.Contains(strings.ToLower(r.Username), search) {
			continue
		}
		if level > 0 && r.LevelNumber != level {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Username != filtered[j].Username {
			return filtered[i].Username < filtered[j].Username
		}
		return filtered[i].LevelNumber < filtered[j].LevelNumber
	})

	return utils.Success(c, fiber.StatusOK, filtered, fiber.Map{"total": len(filtered)})
}
