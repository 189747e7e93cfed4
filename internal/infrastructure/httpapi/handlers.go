package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"YTVeille/internal/domain"
	"YTVeille/internal/usecase"
)

// Runner starts background pipeline runs and reports their state.
type Runner interface {
	Start(ctx context.Context, queries []string) error
	Status() usecase.Status
}

// Handlers serves the read API from the catalog and triggers runs.
type Handlers struct {
	catalog *usecase.Catalog
	runner  Runner
	baseCtx context.Context
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandlers wires the use cases. Background runs derive from baseCtx.
func NewHandlers(baseCtx context.Context, catalog *usecase.Catalog, runner Runner, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handlers{catalog: catalog, runner: runner, baseCtx: baseCtx, logger: log, now: time.Now}
}

type refreshRequest struct {
	Queries []string `json:"queries"`
}

type refreshResponse struct {
	Fetched   int       `json:"fetched"`
	Scored    int       `json:"scored"`
	Stored    int       `json:"stored"`
	Timestamp time.Time `json:"timestamp"`
}

type statusResponse struct {
	Status          string            `json:"status"`
	VideoCount      int               `json:"video_count"`
	LastUpdated     *time.Time        `json:"last_updated"`
	RefreshRunning  bool              `json:"refresh_running"`
	Queries         []string          `json:"queries"`
	QuotaExceeded   bool              `json:"quota_exceeded"`
	QuotaExceededAt *time.Time        `json:"quota_exceeded_at"`
	LastRun         *domain.RunResult `json:"last_run"`
	LastError       string            `json:"last_error,omitempty"`
}

// ListVideos handles GET /api/videos.
func (h *Handlers) ListVideos(c fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", err.Error())
	}

	page, err := h.catalog.List(c.Context(), f)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidFilter) {
			return errorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", err.Error())
		}
		h.logger.Error("list videos", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list videos")
	}
	return c.JSON(page)
}

// GetVideo handles GET /api/videos/:id.
func (h *Handlers) GetVideo(c fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return errorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM", "video id is required")
	}

	v, err := h.catalog.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrVideoNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		h.logger.Error("get video", "id", id, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}
	return c.JSON(v)
}

// GetConfig handles GET /api/config.
func (h *Handlers) GetConfig(c fiber.Ctx) error {
	cfg, err := h.catalog.SearchConfig(c.Context())
	if err != nil {
		h.logger.Error("load search config", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load config")
	}
	return c.JSON(cfg)
}

// Refresh handles POST /api/refresh.
func (h *Handlers) Refresh(c fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be {\"queries\": [...]}")
		}
	}

	if err := h.runner.Start(h.baseCtx, req.Queries); err != nil {
		if errors.Is(err, usecase.ErrAlreadyRunning) {
			return errorResponse(c, fiber.StatusConflict, "REFRESH_RUNNING", "A refresh is already running")
		}
		h.logger.Error("start refresh", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start refresh")
	}

	return c.Status(fiber.StatusAccepted).JSON(refreshResponse{Timestamp: h.now().UTC()})
}

// Status handles GET /api/status.
func (h *Handlers) Status(c fiber.Ctx) error {
	overview, err := h.catalog.Overview(c.Context())
	if err != nil {
		h.logger.Error("load status", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load status")
	}

	run := h.runner.Status()
	resp := statusResponse{
		Status:          "ok",
		VideoCount:      overview.VideoCount,
		LastUpdated:     overview.LastUpdated,
		RefreshRunning:  run.State == usecase.StateRunning,
		Queries:         overview.Queries,
		QuotaExceeded:   overview.QuotaExceeded,
		QuotaExceededAt: overview.QuotaExceededAt,
		LastRun:         run.LastRun,
	}
	if run.LastErr != nil {
		resp.LastError = run.LastErr.Error()
	}
	return c.JSON(resp)
}

// Live handles GET /health/live.
func (h *Handlers) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func parseFilter(c fiber.Ctx) (usecase.ListFilter, error) {
	f := usecase.DefaultListFilter()
	f.Query = c.Query("q")
	f.Topic = c.Query("topic")

	var err error
	if f.MinScore, err = floatQuery(c, "min_score", f.MinScore); err != nil {
		return f, err
	}
	if f.Days, err = intQuery(c, "days", f.Days); err != nil {
		return f, err
	}
	if f.Page, err = intQuery(c, "page", f.Page); err != nil {
		return f, err
	}
	if f.PageSize, err = intQuery(c, "page_size", f.PageSize); err != nil {
		return f, err
	}
	return f, f.Validate()
}

func intQuery(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}

func floatQuery(c fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return v, nil
}

func errorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
