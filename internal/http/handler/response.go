package handler

import (
	"github.com/gofiber/fiber/v2"

	"mediaapi/internal/http/middleware"
)

// envelope is the body of every JSON response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeResponse writes the standard envelope. success follows the status class.
func writeResponse(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{
		StatusCode: status,
		Success:    status < fiber.StatusBadRequest,
		Message:    message,
		Data:       data,
	})
}

func errorData(cause string) fiber.Map {
	if cause == "" {
		return nil
	}
	return fiber.Map{"error": cause}
}
