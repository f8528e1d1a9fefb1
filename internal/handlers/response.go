package handlers

import (
	"errors"
	"fmt"

	catalogerrors "katalog/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps an error kind to the HTTP status returned to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalogerrors.ErrDuplicateName),
		errors.Is(err, catalogerrors.ErrDuplicateSKU),
		errors.Is(err, catalogerrors.ErrUsernameTaken),
		errors.Is(err, catalogerrors.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, catalogerrors.ErrInvalidQuantity):
		return fiber.StatusBadRequest
	case errors.Is(err, catalogerrors.ErrInvalidCredentials),
		errors.Is(err, catalogerrors.ErrInvalidToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	body := fiber.Map{"message": message}
	// Internal failures are logged, not echoed.
	if status != fiber.StatusInternalServerError {
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

func respondBadBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// respondInvalid reports struct validation failures field by field.
func respondInvalid(c *fiber.Ctx, err error) error {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
