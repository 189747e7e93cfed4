package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"YTVeille/internal/config"
	"YTVeille/internal/domain"
	"YTVeille/internal/infrastructure/cache"
	"YTVeille/internal/infrastructure/httpapi"
	"YTVeille/internal/infrastructure/scheduler"
	"YTVeille/internal/infrastructure/storage"
	"YTVeille/internal/infrastructure/telegram"
	"YTVeille/internal/infrastructure/youtube"
	"YTVeille/internal/logging"
	"YTVeille/internal/metrics"
	"YTVeille/internal/ports"
	"YTVeille/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.FileStore
	cache     *cache.RedisCache
	archive   *storage.PostgresArchive
	metrics   *metrics.Collector
	pipeline  *usecase.Pipeline
	catalog   *usecase.Catalog
	scheduler *usecase.Scheduler
}

// New builds the application. Optional adapters that fail to initialise are
// disabled with a warning.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		store:   storage.NewFileStore(cfg.Storage.DataPath),
		metrics: metrics.New(),
	}

	a.cache = cache.Connect(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, baseLogger.With("component", "cache"))

	deps := usecase.PipelineDeps{
		Snapshots:  a.store,
		Settings:   a.store,
		Quota:      a.store,
		Observer:   a.metrics,
		Logger:     baseLogger.With("component", "pipeline"),
		DigestSize: cfg.Notifications.Telegram.DigestSize,
	}
	if a.cache.Enabled() {
		deps.Cache = a.cache
	}

	source, err := a.buildSource(ctx)
	if err != nil {
		return nil, err
	}
	deps.Source = source

	if cfg.Archive.DSN != "" {
		if archive, err := a.openArchive(ctx); err != nil {
			baseLogger.Warn("archive disabled", "error", err)
		} else {
			a.archive = archive
			deps.Archive = archive
		}
	}

	tg := cfg.Notifications.Telegram
	if notifier := telegram.NewNotifier(tg.BaseURL, tg.BotToken, tg.ChatID); notifier.Enabled() {
		deps.Notifier = notifier
	}

	a.pipeline = usecase.NewPipeline(deps)

	catalogDeps := usecase.CatalogDeps{
		Snapshots: a.store,
		Settings:  a.store,
		Quota:     a.store,
		Logger:    baseLogger.With("component", "catalog"),
	}
	if a.cache.Enabled() {
		catalogDeps.Cache = a.cache
	}
	a.catalog = usecase.NewCatalog(catalogDeps)

	driver, err := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		cfg.Scheduler.RunOnStart,
		baseLogger.With("component", "scheduler"),
	)
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}
	a.scheduler = usecase.NewScheduler(driver, a.pipeline, baseLogger.With("component", "scheduler"))

	a.seedMetrics(ctx)
	return a, nil
}

func (a *Application) buildSource(ctx context.Context) (ports.VideoSource, error) {
	yt := a.cfg.YouTube
	if yt.APIKey == "" {
		a.logger.Warn("YOUTUBE_API_KEY not set, refresh runs will fail")
		return nil, nil
	}

	client, err := youtube.NewClient(ctx, yt.APIKey, youtube.Options{
		MaxResults:        yt.MaxResults,
		RegionCode:        yt.RegionCode,
		RelevanceLanguage: yt.RelevanceLanguage,
		RequestTimeout:    yt.RequestTimeout,
		RequestsPerSecond: yt.RequestsPerSecond,
	}, a.logger.With("component", "youtube"))
	if err != nil {
		return nil, err
	}

	return usecase.NewAggregator(client, usecase.AggregatorOptions{
		RecencyWindow:     yt.RecencyWindow(),
		BatchSize:         yt.BatchSize,
		SearchConcurrency: yt.SearchConcurrency,
		DetailConcurrency: yt.DetailConcurrency,
	}, a.logger.With("component", "aggregator")), nil
}

func (a *Application) openArchive(ctx context.Context) (*storage.PostgresArchive, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	archive, err := storage.OpenPostgresArchive(ctx, a.cfg.Archive.DSN)
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureSchema(ctx); err != nil {
		_ = archive.Close()
		return nil, err
	}
	return archive, nil
}

func (a *Application) seedMetrics(ctx context.Context) {
	if videos, err := a.store.LoadVideos(ctx); err == nil {
		a.metrics.SetStoredVideos(len(videos))
	}
	if quota, err := a.store.LoadQuotaStatus(ctx); err == nil {
		a.metrics.SetQuotaExceeded(quota.Exceeded)
	}
}

// Serve runs the read API and the scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handlers := httpapi.NewHandlers(ctx, a.catalog, a.pipeline, a.logger.With("component", "http"))
	server := httpapi.NewApp(handlers, a.metrics, a.cfg.Server.CORSOrigins, a.logger.With("component", "http"))

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- server.Listen(a.cfg.Server.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	a.shutdown(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Worker runs the scheduler only, until ctx is cancelled.
func (a *Application) Worker(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("worker started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.shutdown(shutdownCtx)
	return nil
}

// Refresh performs one synchronous run, optionally replacing the query list.
func (a *Application) Refresh(ctx context.Context, queries []string) (domain.RunResult, error) {
	if cleaned := usecase.CleanQueries(queries); len(cleaned) > 0 {
		if err := a.store.SaveSearchConfig(ctx, domain.SearchConfig{Queries: cleaned}); err != nil {
			return domain.RunResult{}, fmt.Errorf("save search config: %w", err)
		}
	}
	return a.pipeline.Run(ctx)
}

// Close releases optional connections.
func (a *Application) Close() error {
	var errs []error
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}

func (a *Application) shutdown(ctx context.Context) {
	if err := a.scheduler.Stop(ctx); err != nil {
		a.logger.Error("scheduler stop", "error", err)
	}

	done := make(chan struct{})
	go func() {
		a.pipeline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown timed out waiting for running pipeline")
	}
}
