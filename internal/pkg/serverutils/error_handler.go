package serverutils

import (
	"errors"

	"trend-finder-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest
	}

	switch apperr.KindOf(err) {
	case apperr.KindInputValidation:
		return fiber.StatusBadRequest
	case apperr.KindRemoteService, apperr.KindInvalidResponseFormat:
		return fiber.StatusBadGateway
	case apperr.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders errors returned by handlers as ErrorResponse.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusOf(err)
		message := apperr.MessageOf(err)
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
