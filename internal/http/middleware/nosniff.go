package middleware

import "github.com/gofiber/fiber/v2"

// NoSniff stops browsers from guessing a served blob's type, so a stored file
// is only ever rendered as the Content-Type it was served with.
func NoSniff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		return c.Next()
	}
}
