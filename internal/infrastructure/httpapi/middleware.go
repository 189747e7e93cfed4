package httpapi

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"

	"YTVeille/internal/metrics"
)

// newCORS accepts a comma-separated origin list; empty or "*" allows all.
func newCORS(corsOrigins string) fiber.Handler {
	origins := []string{"*"}
	if corsOrigins != "" && corsOrigins != "*" {
		origins = strings.Split(corsOrigins, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       86400,
	})
}

// newRequestLogger logs each request once it completes.
func newRequestLogger(log *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		method := string([]byte(c.Method()))
		path := string([]byte(c.Path()))

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		log.Log(c.Context(), level, "request",
			"method", method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"bytes_sent", len(c.Response().Body()),
		)
		return err
	}
}

// newMetricsMiddleware records request duration by endpoint.
func newMetricsMiddleware(collector *metrics.Collector) fiber.Handler {
	return func(c fiber.Ctx) error {
		if collector == nil || c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber hands out views of reusable fasthttp buffers; copy before Next.
		endpoint := sanitizeEndpoint(string([]byte(c.Path())))
		method := string([]byte(c.Method()))
		start := time.Now()

		err := c.Next()

		collector.ObserveRequest(endpoint, method, strconv.Itoa(c.Response().StatusCode()), time.Since(start))
		return err
	}
}

func sanitizeEndpoint(path string) string {
	if strings.HasPrefix(path, "/api/videos/") && len(path) > len("/api/videos/") {
		return "/api/videos/:id"
	}
	return path
}
