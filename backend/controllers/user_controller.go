package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/service"
	"treasurehunt/backend/utils"
)

// UserController is the account management panel of the admin dashboard.
type UserController struct {
	Accounts *accounts.Manager
	Game     *service.GameService
	Logger   *log.Logger
}

func NewUserController(m *accounts.Manager, game *service.GameService, logger *log.Logger) *UserController {
	return &UserController{Accounts: m, Game: game, Logger: logger}
}

type UpdateUserRequest struct {
	Email    *string `json:"email" example:"user@example.com" format:"email"`
	Password *string `json:"password" example:"newPassword123" minLength:"6"`
}

// CreateUser godoc
// @Summary Create an account
// @Tags admin
// @Accept json
// @Produce json
// @Param user body RegisterInput true "Account data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users [post]
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	user, err := uc.Accounts.CreateUser(c.UserContext(), input.Username, input.Password, input.Email)
	if err != nil {
		return respondError(c, uc.Logger, err)
	}
	uc.Logger.Printf("admin created user %s", user.Username)
	return utils.Created(c, user)
}

// GetUser returns the account details together with its status block.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	username := c.Params("username")
	user, err := uc.Accounts.Details(c.UserContext(), username)
	if err != nil {
		return respondError(c, uc.Logger, err)
	}
	status, err := uc.Accounts.Status(c.UserContext(), username)
	if err != nil {
		return respondError(c, uc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":   user,
		"status": status,
	})
}

// UpdateUser godoc
// @Summary Change email and/or password
// @Tags admin
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users/{username} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	updated, err := uc.Accounts.UpdateDetails(c.UserContext(), c.Params("username"), input.Email, input.Password)
	if err != nil {
		return respondError(c, uc.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"updated": updated})
}

// DisableUser blocks logins and ends the player's live sessions.
func (uc *UserController) DisableUser(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := uc.Accounts.Disable(c.UserContext(), username); err != nil {
		return respondError(c, uc.Logger, err)
	}
	uc.Game.DropUser(username)
	uc.Logger.Printf("admin disabled user %s", username)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "User " + username + " has been disabled"})
}

func (uc *UserController) ActivateUser(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := uc.Accounts.Activate(c.UserContext(), username); err != nil {
		return respondError(c, uc.Logger, err)
	}
	uc.Logger.Printf("admin activated user %s", username)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "User " + username + " has been activated"})
}

func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := uc.Accounts.Delete(c.UserContext(), username); err != nil {
		return respondError(c, uc.Logger, err)
	}
	uc.Game.DropUser(username)
	uc.Logger.Printf("admin deleted user %s", username)
	return utils.NoContent(c)
}
