package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/middleware"
)

// healthTimeout bounds the database ping so a hung connection can't hang the probe.
const healthTimeout = 2 * time.Second

// HealthCheck handles GET /health.
// It reports whether the server is up and whether the database answers a ping. It's used by:
//   - Docker/Kubernetes readiness and liveness probes to decide if the container is healthy
//   - Load balancers to check whether to send traffic to this instance
//
// A failed ping returns 503 so the instance is taken out of rotation until the database
// is reachable again.
func HealthCheck(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := env.Store.Ping(ctx); err != nil {
			middleware.Logger(c, env.Log).WithError(err).Warn("health check: database unavailable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}
