package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codax69/sever-main-sub001/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/users/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users/:id", "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMetrics_LabelsSurviveLaterRequests(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Post("/carts", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/carts", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/carts", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete, http.MethodGet} {
		_, err := app.Test(httptest.NewRequest(method, "/carts", nil))
		require.NoError(t, err)
	}

	// The series were created by the middleware, so a stale label would not
	// match here and would read back as zero.
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/carts", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/carts", "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/carts", "200")))
}

func TestRequestLogger_FieldsSurviveLaterRequests(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Post("/first", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/second-path", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/first", nil),
		httptest.NewRequest(http.MethodGet, "/second-path", nil),
	} {
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, http.MethodPost, entries[0].ContextMap()["method"])
	assert.Equal(t, "/first", entries[0].ContextMap()["path"])
}
