// Package middleware contains HTTP middleware functions for the Golf Metrics API.
// Middleware sits between the HTTP server and route handlers: it runs on every request that
// passes through it, making it the right place for cross-cutting concerns like request
// logging, metrics and content negotiation.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the c.Locals key holding the request id.
const requestIDKey = "requestID"

// RequestID returns the id assigned to the current request, or "" outside RequestLogger.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// Logger returns a log entry tagged with the current request id, for use in handlers.
func Logger(c *fiber.Ctx, log *logrus.Logger) *logrus.Entry {
	return log.WithField("request_id", RequestID(c))
}

// RequestLogger returns a middleware that:
//  1. Reuses the caller's X-Request-ID or generates a new UUID, and echoes it on the response
//  2. Stores the id in c.Locals so handlers can tag their own log lines with it
//  3. Writes one structured log line per request once the handler chain has finished
//
// Errors returned by the chain are rendered here through the app's ErrorHandler, so the
// logged status is the one the client receives.
func RequestLogger(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(RequestIDHeader, id)

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
			"ip":         c.IP(),
		})

		// 4xx go to debug, 5xx to error
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Debug("request rejected")
		default:
			entry.Info("request handled")
		}
		return nil
	}
}
