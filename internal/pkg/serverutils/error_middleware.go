package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"requirements-intake-be/internal/service"
)

// ErrorHandlerMiddleware maps service errors onto HTTP statuses and the
// response envelope. Controllers just `return err`.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				ErrorResponse("Text validation failed", validationErr.Violations))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message, nil))
		}

		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error(), nil))

		case errors.Is(err, service.ErrNoInput):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error(), nil))

		case errors.Is(err, service.ErrSubmissionInFlight),
			errors.Is(err, service.ErrInvalidRecordingState):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(err.Error(), nil))

		case errors.Is(err, service.ErrDeviceDenied):
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(err.Error(), nil))

		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(
				ErrorResponse("Internal server error", nil))
		}
	}
}
