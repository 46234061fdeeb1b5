package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/metrics"
)

// Metrics collects HTTP request metrics. Requests are labelled by the matched route pattern
// (e.g. /api/golfers/:id/) rather than the raw path, so ids don't explode label cardinality.
//
// A handler error has not been rendered yet at this point, so its status is taken from the
// error itself (*fiber.Error code, else 500).
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()

		metrics.RequestInProgress.WithLabelValues(method).Inc()
		defer metrics.RequestInProgress.WithLabelValues(method).Dec()

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		labels := []string{strconv.Itoa(status), method, path}

		metrics.RequestCounter.WithLabelValues(labels...).Inc()
		metrics.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}
