package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/game"
	"treasurehunt/backend/middleware"
	"treasurehunt/backend/progress"
	"treasurehunt/backend/service"
	"treasurehunt/backend/sessions"
	"treasurehunt/backend/utils"
)

type GameController struct {
	Game   *service.GameService
	Logger *log.Logger
}

func NewGameController(game *service.GameService, logger *log.Logger) *GameController {
	return &GameController{Game: game, Logger: logger}
}

func (gc *GameController) session(c *fiber.Ctx) (*sessions.Session, error) {
	return gc.Game.Session(middleware.Claims(c).SessionID)
}

// storageBanner is shown when progress could not be written anywhere.
func storageBanner(storage string) string {
	if storage == progress.Unavailable {
		return "Progress could not be saved right now; it will be saved at the next checkpoint."
	}
	return ""
}

// GetState godoc
// @Summary Current game state
// @Tags game
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /game/state [get]
func (gc *GameController) GetState(c *fiber.Ctx) error {
	sess, err := gc.session(c)
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"game":    gc.Game.View(sess),
		"storage": sess.Storage(),
	})
}

func (gc *GameController) act(c *fiber.Ctx, kind game.ActionKind, input string) error {
	sess, err := gc.session(c)
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	res, err := gc.Game.Act(c.UserContext(), sess, game.Action{Kind: kind, Input: input})
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"outcome": res.Outcome,
		"game":    res.View,
		"storage": res.Storage,
		"notice":  storageBanner(res.Storage),
	})
}

// SubmitAnswer godoc
// @Summary Answer the riddle of the current level
// @Tags game
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /game/answer [post]
func (gc *GameController) SubmitAnswer(c *fiber.Ctx) error {
	var input struct {
		Answer string `json:"answer"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	return gc.act(c, game.SubmitAnswer, input.Answer)
}

func (gc *GameController) RequestHint(c *fiber.Ctx) error {
	return gc.act(c, game.RequestHint, "")
}

// SubmitKey answers the security riddle and unlocks the next level.
func (gc *GameController) SubmitKey(c *fiber.Ctx) error {
	var input struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	return gc.act(c, game.SubmitKey, input.Key)
}

func (gc *GameController) RequestSecurityHint(c *fiber.Ctx) error {
	return gc.act(c, game.RequestSecurityHint, "")
}

func (gc *GameController) Save(c *fiber.Ctx) error {
	sess, err := gc.session(c)
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	storage, err := gc.Game.Save(c.UserContext(), sess)
	if err != nil {
		gc.Logger.Printf("manual save for %s failed: %v", sess.Username, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"saved":   err == nil,
		"storage": storage,
		"notice":  storageBanner(storage),
	})
}

// ResetProgress starts the game over. Refused once the game was completed.
func (gc *GameController) ResetProgress(c *fiber.Ctx) error {
	sess, err := gc.session(c)
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	res, err := gc.Game.Reset(c.UserContext(), sess)
	if err != nil {
		return respondError(c, gc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"game":    res.View,
		"storage": res.Storage,
		"notice":  storageBanner(res.Storage),
	})
}
