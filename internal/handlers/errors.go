package handlers

import (
	"errors"

	"brickshelf/internal/logger"
	"brickshelf/internal/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, services.ErrPasswordMismatch):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateUserName):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrWrongPassword):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrSetNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body used by every route. Internal
// errors are logged and their cause is not echoed to the client.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg(message)
		return c.Status(status).JSON(fiber.Map{
			"message": message,
			"error":   "internal error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// badBody reports a request body that could not be parsed.
func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
