package controllers

import (
	"bytes"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/models"
	"treasurehunt/backend/reports"
	"treasurehunt/backend/utils"
)

const defaultLeaderboardSize = 5

type AnalyticsController struct {
	Accounts *accounts.Manager
	Logger   *log.Logger
}

func NewAnalyticsController(m *accounts.Manager, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{Accounts: m, Logger: logger}
}

func (ac *AnalyticsController) rows(c *fiber.Ctx) ([]models.UserRow, error) {
	users, err := ac.Accounts.List(c.UserContext())
	if err != nil {
		return nil, err
	}
	return reports.Rows(users), nil
}

// GetStats returns the headline numbers of the dashboard.
func (ac *AnalyticsController) GetStats(c *fiber.Ctx) error {
	users, err := ac.Accounts.List(c.UserContext())
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, reports.Summarize(users))
}

// GetUsers godoc
// @Summary User table
// @Description Lists players, filtered by search (username or email), email, level (1-based) and status (active|disabled). format=csv downloads the table.
// @Tags admin
// @Produce json
// @Param search query string false "username or email substring"
// @Param email query string false "email substring"
// @Param level query int false "current level"
// @Param status query string false "active or disabled"
// @Param format query string false "json or csv"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (ac *AnalyticsController) GetUsers(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && status != reports.StatusActive && status != reports.StatusDisabled {
		return utils.BadRequest(c, "status must be active or disabled")
	}
	level := c.QueryInt("level", 0)
	if level < 0 {
		return utils.BadRequest(c, "level must be positive")
	}

	rows, err := ac.rows(c)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	rows = reports.Filter(rows, reports.Query{
		Search: c.Query("search"),
		Email:  c.Query("email"),
		Level:  level,
		Status: status,
	})

	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := reports.WriteCSV(&buf, rows); err != nil {
			return respondError(c, ac.Logger, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Attachment("user_data_" + time.Now().Format("20060102_150405") + ".csv")
		return c.Send(buf.Bytes())
	}

	return utils.Success(c, fiber.StatusOK, rows, fiber.Map{"total": len(rows)})
}

// GetLeaderboard ranks players by ?by= (high_score, max_streak,
// perfect_levels, total_games).
func (ac *AnalyticsController) GetLeaderboard(c *fiber.Ctx) error {
	by := c.Query("by", reports.ByHighScore)
	limit := c.QueryInt("limit", defaultLeaderboardSize)
	if limit <= 0 {
		return utils.BadRequest(c, "limit must be positive")
	}

	rows, err := ac.rows(c)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	top, err := reports.Top(rows, by, limit)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, top, fiber.Map{"by": by})
}

func (ac *AnalyticsController) GetLevelDistribution(c *fiber.Ctx) error {
	rows, err := ac.rows(c)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, reports.LevelDistribution(rows))
}
