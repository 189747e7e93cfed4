package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
	"YTVeille/internal/scoring"
)

// ErrAlreadyRunning rejects a run request while another run is in progress.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// RunState is the orchestrator lifecycle state.
type RunState string

const (
	StateIdle    RunState = "idle"
	StateRunning RunState = "running"
)

const defaultDigestSize = 5

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.VideoSource
	Snapshots  ports.SnapshotStore
	Settings   ports.SearchConfigStore
	Quota      ports.QuotaStore
	Archive    ports.VideoArchive
	Cache      ports.Cache
	Notifier   ports.Notifier
	Observer   ports.RunObserver
	Logger     *slog.Logger
	DigestSize int
	Clock      func() time.Time
}

// Pipeline implements the fetch, score and persist workflow. At most one run
// executes at a time.
type Pipeline struct {
	source     ports.VideoSource
	snapshots  ports.SnapshotStore
	settings   ports.SearchConfigStore
	quota      ports.QuotaStore
	archive    ports.VideoArchive
	cache      ports.Cache
	notifier   ports.Notifier
	observer   ports.RunObserver
	logger     *slog.Logger
	digestSize int
	now        func() time.Time

	mu      sync.Mutex
	state   RunState
	last    *domain.RunResult
	lastErr error
	wg      sync.WaitGroup
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State   RunState
	LastRun *domain.RunResult
	LastErr error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:     deps.Source,
		snapshots:  deps.Snapshots,
		settings:   deps.Settings,
		quota:      deps.Quota,
		archive:    deps.Archive,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		observer:   deps.Observer,
		logger:     deps.Logger,
		digestSize: deps.DigestSize,
		now:        deps.Clock,
		state:      StateIdle,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.digestSize <= 0 {
		p.digestSize = defaultDigestSize
	}
	return p
}

// Run executes one pipeline run synchronously.
func (p *Pipeline) Run(ctx context.Context) (domain.RunResult, error) {
	if !p.acquire() {
		return domain.RunResult{}, ErrAlreadyRunning
	}
	defer p.release()

	return p.execute(ctx)
}

// Start claims the run slot, optionally overwrites the query list, and runs in
// the background. The run keeps going if ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context, queries []string) error {
	if !p.acquire() {
		return ErrAlreadyRunning
	}

	if cleaned := CleanQueries(queries); len(cleaned) > 0 {
		if p.settings == nil {
			p.release()
			return fmt.Errorf("save search config: no search config store configured")
		}
		if err := p.settings.SaveSearchConfig(ctx, domain.SearchConfig{Queries: cleaned}); err != nil {
			p.release()
			return fmt.Errorf("save search config: %w", err)
		}
	}

	runCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release()
		_, _ = p.execute(runCtx)
	}()
	return nil
}

// Wait blocks until every background run has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Status reports the current state and the last finished run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{State: p.state, LastRun: p.last, LastErr: p.lastErr}
}

func (p *Pipeline) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		return false
	}
	p.state = StateRunning
	return true
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()
}

func (p *Pipeline) execute(ctx context.Context) (domain.RunResult, error) {
	result := domain.RunResult{RunID: uuid.NewString(), StartedAt: p.now().UTC()}
	log := p.logger.With("run_id", result.RunID)
	log.Info("pipeline started")

	err := p.process(ctx, log, &result)
	result.CompletedAt = p.now().UTC()
	elapsed := result.CompletedAt.Sub(result.StartedAt)

	outcome := domain.OutcomeSuccess
	switch {
	case err == nil:
		log.Info("pipeline done", "stored", result.Stored, "elapsed", elapsed)
	case errors.Is(err, domain.ErrQuotaExceeded):
		outcome = domain.OutcomeQuotaExceeded
		p.markQuotaExceeded(ctx, log, result.CompletedAt)
		log.Warn("quota exceeded, run abandoned", "error", err)
	default:
		outcome = domain.OutcomeFailed
		log.Error("pipeline failed", "error", err)
	}

	if p.observer != nil {
		p.observer.ObserveRun(outcome, elapsed, result)
	}

	p.mu.Lock()
	p.last = &result
	p.lastErr = err
	p.mu.Unlock()

	return result, err
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, result *domain.RunResult) error {
	if p.source == nil || p.snapshots == nil {
		return fmt.Errorf("pipeline is not configured")
	}

	queries := domain.DefaultQueries()
	if p.settings != nil {
		cfg, err := p.settings.LoadSearchConfig(ctx)
		if err != nil {
			return fmt.Errorf("load search config: %w", err)
		}
		if len(cfg.Queries) > 0 {
			queries = cfg.Queries
		}
	}

	report, err := p.source.FetchAll(ctx, queries)
	result.Queries = report.Outcomes
	if err != nil {
		return fmt.Errorf("fetch videos: %w", err)
	}
	result.Fetched = len(report.Videos)
	log.Debug("videos fetched", "count", result.Fetched)

	scored := ScoreAll(report.Videos, result.StartedAt)
	result.Scored = len(scored)

	if err := p.snapshots.SaveVideos(ctx, scored); err != nil {
		return fmt.Errorf("save videos: %w", err)
	}
	result.Stored = len(scored)

	p.clearQuota(ctx, log)
	p.afterSave(ctx, log, scored, result.StartedAt)
	return nil
}

// ScoreAll scores every video against now and sorts by score descending.
// Equal scores keep their fetch order.
func ScoreAll(videos []domain.Video, now time.Time) []domain.ScoredVideo {
	scored := make([]domain.ScoredVideo, 0, len(videos))
	for _, v := range videos {
		scored = append(scored, scoring.Apply(v, now))
	}
	slices.SortStableFunc(scored, func(a, b domain.ScoredVideo) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

func (p *Pipeline) clearQuota(ctx context.Context, log *slog.Logger) {
	if p.observer != nil {
		p.observer.SetQuotaExceeded(false)
	}
	if p.quota == nil {
		return
	}
	if err := p.quota.SaveQuotaStatus(ctx, domain.QuotaStatus{}); err != nil {
		log.Error("clear quota status", "error", err)
	}
}

func (p *Pipeline) markQuotaExceeded(ctx context.Context, log *slog.Logger, at time.Time) {
	if p.observer != nil {
		p.observer.SetQuotaExceeded(true)
	}
	if p.quota == nil {
		return
	}
	if err := p.quota.SaveQuotaStatus(ctx, domain.QuotaStatus{Exceeded: true, ExceededAt: &at}); err != nil {
		log.Error("save quota status", "error", err)
	}
}

// afterSave runs the optional side effects of a committed snapshot.
func (p *Pipeline) afterSave(ctx context.Context, log *slog.Logger, videos []domain.ScoredVideo, seenAt time.Time) {
	if p.archive != nil {
		if err := p.archive.Archive(ctx, videos, seenAt); err != nil {
			log.Error("archive videos", "error", err)
		}
	}

	if p.cache != nil {
		if err := p.cache.Invalidate(ctx); err != nil {
			log.Warn("invalidate cache", "error", err)
		}
	}

	if p.notifier != nil && len(videos) > 0 {
		if err := p.notifier.PublishDigest(ctx, BuildDigest(videos, p.digestSize)); err != nil {
			log.Error("publish digest", "error", err)
		}
	}
}

// BuildDigest renders the top videos as a Markdown message.
func BuildDigest(videos []domain.ScoredVideo, limit int) string {
	if len(videos) == 0 {
		return ""
	}
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}

	var sb strings.Builder
	for _, v := range videos {
		fmt.Fprintf(&sb, "- %s\nScore: %.1f", v.Title, v.Score)
		if len(v.Topics) > 0 {
			fmt.Fprintf(&sb, " | %s", strings.Join(v.Topics, ", "))
		}
		fmt.Fprintf(&sb, "\n%s\n\n", v.URL)
	}
	return sb.String()
}

// CleanQueries trims queries and drops blank ones.
func CleanQueries(queries []string) []string {
	var out []string
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
