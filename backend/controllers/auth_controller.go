package controllers

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/config"
	"treasurehunt/backend/middleware"
	"treasurehunt/backend/service"
	"treasurehunt/backend/utils"
)

type AuthController struct {
	Game   *service.GameService
	Cfg    *config.Config
	Logger *log.Logger
}

func NewAuthController(game *service.GameService, cfg *config.Config, logger *log.Logger) *AuthController {
	return &AuthController{Game: game, Cfg: cfg, Logger: logger}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a new player
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterInput true "Registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	user, err := ac.Game.Register(c.UserContext(), input.Username, input.Password, input.Email)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Created(c, fiber.Map{
		"message": "Account created successfully! Please login.",
		"user":    user,
	})
}

// Login godoc
// @Summary Player login
// @Description Authenticates the player, restores saved progress and opens a game session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	res, err := ac.Game.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	token, err := utils.GenerateJWTToken(res.User.Username, utils.RolePlayer, res.Session.ID, ac.Cfg)
	if err != nil {
		ac.Game.Logout(res.Session.ID, res.User.Username)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":            token,
		"user":             res.User,
		"game":             res.View,
		"storage":          res.Storage,
		"questions_source": ac.Game.QuestionSource(),
	})
}

// AdminLogin exchanges the admin password for an admin token.
func (ac *AuthController) AdminLogin(c *fiber.Ctx) error {
	var input struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if !ac.Cfg.AdminEnabled() {
		return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "Admin access is not configured"))
	}
	if subtle.ConstantTimeCompare([]byte(input.Password), []byte(ac.Cfg.AdminPassword)) != 1 {
		ac.Logger.Printf("failed admin login from %s", c.IP())
		return utils.Unauthorized(c, "Invalid admin password")
	}

	token, err := utils.GenerateJWTToken("", utils.RoleAdmin, "", ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token})
}

// Logout ends the player's game session. Saved progress is kept.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	ac.Game.Logout(claims.SessionID, claims.Username)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}
