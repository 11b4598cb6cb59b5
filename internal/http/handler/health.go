package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"mediaapi/internal/database"
)

// HealthCheck reports the metadata store's reachability.
func HealthCheck(ping database.PingFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			return writeResponse(c, fiber.StatusServiceUnavailable, "dependency unavailable", nil)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
