package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-metrics/internal/metrics"
)

func newApp(log *logrus.Logger) *fiber.App {
	app := fiber.New()
	app.Use(RequestLogger(log), Metrics())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Post("/echo", RequireContentType(fiber.MIMEApplicationJSON), func(c *fiber.Ctx) error {
		return c.Send(c.Body())
	})
	return app
}

func TestRequestLogger_GeneratesID(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	app := newApp(log)

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	id := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, string(body), "handlers see the same id")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, id, entry.Data["request_id"])
	assert.Equal(t, 200, entry.Data["status"])
	assert.Equal(t, "/ok", entry.Data["path"])
}

func TestRequestLogger_ReusesCallerID(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	app := newApp(log)

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestRequestLogger_RendersChainErrors(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	app := newApp(log)

	before := promtest.ToFloat64(metrics.RequestCounter.WithLabelValues("500", "GET", "/boom"))

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, 500, entry.Data["status"])

	after := promtest.ToFloat64(metrics.RequestCounter.WithLabelValues("500", "GET", "/boom"))
	assert.Equal(t, before+1, after)
}

func TestRequireContentType(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	app := newApp(log)

	req := httptest.NewRequest("POST", "/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set(fiber.HeaderContentType, "application/json; charset=utf-8")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/echo", strings.NewReader(`a=1`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/echo", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "empty bodies pass through")
}
