package httpapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"YTVeille/internal/metrics"
)

// NewApp builds the Fiber application with middleware and every route.
func NewApp(h *Handlers, collector *metrics.Collector, corsOrigins string, log *slog.Logger) *fiber.App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		AppName:      "YTVeille API",
		ServerHeader: "YTVeille",
	})

	app.Use(recoverer.New())
	app.Use(newRequestLogger(log))
	app.Use(newMetricsMiddleware(collector))
	app.Use(newCORS(corsOrigins))

	app.Get("/health/live", h.Live)
	if collector != nil {
		app.Get("/metrics", metricsHandler(collector))
	}

	api := app.Group("/api")
	api.Get("/videos", h.ListVideos)
	api.Get("/videos/:id", h.GetVideo)
	api.Get("/config", h.GetConfig)
	api.Post("/refresh", h.Refresh)
	api.Get("/status", h.Status)

	return app
}

func metricsHandler(collector *metrics.Collector) fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(collector.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
