package middleware

// content_type.go: request body gatekeeping.

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireContentType returns a middleware that only lets request bodies through when their
// Content-Type matches one of the provided MIME types. Returns HTTP 415 Unsupported Media
// Type otherwise.
//
// Requests without a body (GET, DELETE, empty POST) are passed straight through, so it can
// sit in front of a whole route group:
//
//	api := app.Group("/api", middleware.RequireContentType(fiber.MIMEApplicationJSON))
func RequireContentType(types ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(c.Body()) == 0 {
			return c.Next()
		}

		// Strip parameters such as "; charset=utf-8" before comparing
		contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(c.Get(fiber.HeaderContentType), ";", 2)[0]))
		for _, t := range types {
			if contentType == t {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"detail": "unsupported media type \"" + contentType + "\" in request",
		})
	}
}
