package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/game"
	"treasurehunt/backend/questions"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/reports"
	"treasurehunt/backend/service"
	"treasurehunt/backend/store"
	"treasurehunt/backend/utils"
)

// statusFor maps domain errors to HTTP statuses. Zero means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput),
		errors.Is(err, accounts.ErrNoChanges),
		errors.Is(err, game.ErrEmptyInput),
		errors.Is(err, game.ErrUnknown),
		errors.Is(err, reports.ErrUnknownMetric),
		errors.Is(err, questions.ErrInvalidBank):
		return fiber.StatusBadRequest
	case errors.Is(err, accounts.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, accounts.ErrAccountDisabled):
		return fiber.StatusForbidden
	case errors.Is(err, accounts.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, accounts.ErrDuplicateUsername),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, service.ErrResetLocked):
		return fiber.StatusConflict
	case errors.Is(err, remote.ErrStatus):
		return fiber.StatusBadGateway
	case errors.Is(err, store.ErrUnreadable):
		return fiber.StatusServiceUnavailable
	}
	return 0
}

// respondError renders err in the standard error envelope. Unknown errors
// are logged and hidden behind a 500.
func respondError(c *fiber.Ctx, logger *log.Logger, err error) error {
	status := statusFor(err)
	var fe *fiber.Error
	if status == 0 && errors.As(err, &fe) {
		status = fe.Code
	}
	if status == 0 {
		logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return utils.InternalServerError(c, "Internal server error")
	}

	if errors.Is(err, store.ErrUnreadable) {
		logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return utils.Error(c, status, store.ErrUnreadable)
	}

	var se *remote.StatusError
	if errors.As(err, &se) {
		return utils.Error(c, status, err, fiber.Map{"remote_status": se.Code, "remote_body": se.Body})
	}
	return utils.Error(c, status, err)
}
