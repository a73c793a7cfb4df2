package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks a bound request DTO against its validate tags and
// converts failures into a 400 with per-field messages.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(invalid))
	for _, f := range invalid {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", f.Field(), f.Tag()))
	}
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid request: %v", fields))
}
