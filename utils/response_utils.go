package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hootqna/internal/extract"
	"hootqna/internal/provider"
	"hootqna/internal/segment"
	"hootqna/internal/store"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// StatusForError maps the application's error types onto HTTP status codes.
// Malformed caller input is a 422, a misbehaving provider is a 502, a missing
// record is a 404, and anything unclassified is a 500.
func StatusForError(err error) int {
	var (
		formatErr  *segment.FormatError
		parseErr   *segment.ParseError
		provErr    *provider.Error
		extractErr *extract.Error
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &formatErr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &provErr):
		return fiber.StatusBadGateway
	case errors.As(err, &extractErr):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var errors []string
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			element := fmt.Sprintf("Field '%s' failed on the '%s' tag", err.Field(), err.Tag())
			if err.Param() != "" {
				element = fmt.Sprintf("%s (value: %s)", element, err.Param())
			}
			errors = append(errors, element)
		}
	}
	return errors
}

// SanitizeInput trims surrounding whitespace from user-provided strings.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
