package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/models"
	"treasurehunt/backend/questions"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/service"
	"treasurehunt/backend/utils"
)

// RemoteTokenHeader carries the remote API token obtained from
// POST /api/admin/questions/login on the question-bank calls.
const RemoteTokenHeader = "X-Remote-Token"

// QuestionsController proxies question-bank management to the remote API and
// reloads the live bank after every change.
type QuestionsController struct {
	Client *remote.Client
	Game   *service.GameService
	Logger *log.Logger
}

func NewQuestionsController(client *remote.Client, game *service.GameService, logger *log.Logger) *QuestionsController {
	return &QuestionsController{Client: client, Game: game, Logger: logger}
}

func (qc *QuestionsController) available(c *fiber.Ctx) bool {
	if qc.Client == nil {
		_ = utils.Error(c, fiber.StatusServiceUnavailable, errors.New("remote question bank is not configured"))
		return false
	}
	return true
}

func (qc *QuestionsController) token(c *fiber.Ctx) (string, bool) {
	token := c.Get(RemoteTokenHeader)
	if token == "" {
		_ = utils.Unauthorized(c, "Missing "+RemoteTokenHeader+" header")
		return "", false
	}
	return token, true
}

func (qc *QuestionsController) Login(c *fiber.Ctx) error {
	if !qc.available(c) {
		return nil
	}
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	token, err := qc.Client.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		var se *remote.StatusError
		if errors.As(err, &se) && (se.Code == fiber.StatusUnauthorized || se.Code == fiber.StatusBadRequest) {
			return utils.Unauthorized(c, "Remote authentication failed")
		}
		return respondRemote(c, qc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token})
}

// ListQuestions shows the live bank, including answers, and where it came
// from.
func (qc *QuestionsController) ListQuestions(c *fiber.Ctx) error {
	if qc.Client == nil {
		engine := qc.Game.Engine()
		return utils.Success(c, fiber.StatusOK, engine.Questions(), fiber.Map{"source": questions.SourceFallback})
	}
	qs, err := qc.Client.Questions(c.UserContext())
	if err != nil {
		return respondRemote(c, qc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, qs, fiber.Map{"source": questions.SourceDatabase})
}

func parseQuestion(c *fiber.Ctx) (models.Question, error) {
	var q models.Question
	if err := c.BodyParser(&q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if q.Difficulty == "" {
		q.Difficulty = models.DifficultyMedium
	}
	if err := questions.Validate([]models.Question{q}); err != nil {
		return q, err
	}
	return q, nil
}

func (qc *QuestionsController) CreateQuestion(c *fiber.Ctx) error {
	if !qc.available(c) {
		return nil
	}
	token, ok := qc.token(c)
	if !ok {
		return nil
	}
	q, err := parseQuestion(c)
	if err != nil {
		return respondError(c, qc.Logger, err)
	}
	raw, err := qc.Client.CreateQuestion(c.UserContext(), token, q)
	if err != nil {
		return respondRemote(c, qc.Logger, err)
	}
	source := qc.Game.ReloadQuestions(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse{
		Success: true,
		Data:    raw,
		Meta:    fiber.Map{"source": source},
	})
}

func (qc *QuestionsController) UpdateQuestion(c *fiber.Ctx) error {
	if !qc.available(c) {
		return nil
	}
	token, ok := qc.token(c)
	if !ok {
		return nil
	}
	level, err := c.ParamsInt("level")
	if err != nil || level <= 0 {
		return utils.BadRequest(c, "level must be a positive number")
	}
	q, err := parseQuestion(c)
	if err != nil {
		return respondError(c, qc.Logger, err)
	}
	q.LevelNumber = level
	raw, err := qc.Client.UpdateQuestion(c.UserContext(), token, level, q)
	if err != nil {
		return respondRemote(c, qc.Logger, err)
	}
	source := qc.Game.ReloadQuestions(c.UserContext())
	return utils.Success(c, fiber.StatusOK, raw, fiber.Map{"source": source})
}

func (qc *QuestionsController) DeleteQuestion(c *fiber.Ctx) error {
	if !qc.available(c) {
		return nil
	}
	token, ok := qc.token(c)
	if !ok {
		return nil
	}
	level, err := c.ParamsInt("level")
	if err != nil || level <= 0 {
		return utils.BadRequest(c, "level must be a positive number")
	}
	if err := qc.Client.DeleteQuestion(c.UserContext(), token, level); err != nil {
		return respondRemote(c, qc.Logger, err)
	}
	source := qc.Game.ReloadQuestions(c.UserContext())
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": level}, fiber.Map{"source": source})
}

// respondRemote reports remote failures as 502, and unreachable remotes as
// 503.
func respondRemote(c *fiber.Ctx, logger *log.Logger, err error) error {
	if errors.Is(err, remote.ErrStatus) {
		return respondError(c, logger, err)
	}
	logger.Printf("remote API unreachable: %v", err)
	return utils.Error(c, fiber.StatusServiceUnavailable, errors.New("remote API is unreachable"))
}
