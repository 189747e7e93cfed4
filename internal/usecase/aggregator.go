package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

const (
	defaultRecencyWindow = 30 * 24 * time.Hour
	defaultBatchSize     = 50

	defaultDetailConcurrency = 2
)

// AggregatorOptions bounds the work of one fetch.
type AggregatorOptions struct {
	RecencyWindow     time.Duration
	BatchSize         int
	SearchConcurrency int
	DetailConcurrency int
}

// Aggregator implements ports.VideoSource by running every query against the
// platform, removing ids already seen earlier in the same run.
type Aggregator struct {
	platform ports.VideoPlatform
	opts     AggregatorOptions
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.VideoSource = (*Aggregator)(nil)

// NewAggregator wires the platform client; zero options fall back to defaults.
func NewAggregator(platform ports.VideoPlatform, opts AggregatorOptions, log *slog.Logger) *Aggregator {
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = defaultRecencyWindow
	}
	if opts.BatchSize <= 0 || opts.BatchSize > defaultBatchSize {
		opts.BatchSize = defaultBatchSize
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = 1
	}
	if opts.DetailConcurrency <= 0 {
		opts.DetailConcurrency = defaultDetailConcurrency
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{platform: platform, opts: opts, logger: log, now: time.Now}
}

type searchResult struct {
	ids []string
	err error
}

// FetchAll runs queries in order. Quota exhaustion stops the whole fetch and
// is returned wrapped around domain.ErrQuotaExceeded together with the partial
// report; any other per-query failure skips that query.
func (a *Aggregator) FetchAll(ctx context.Context, queries []string) (domain.FetchReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cutoff := a.now().UTC().Add(-a.opts.RecencyWindow)

	// Searches are dispatched in query order; a slot is handed back only once
	// the result of the query holding it has been processed.
	results := make([]chan searchResult, len(queries))
	for i := range results {
		results[i] = make(chan searchResult, 1)
	}
	slots := make(chan struct{}, a.opts.SearchConcurrency)
	go func() {
		for i, q := range queries {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func() {
				ids, err := a.platform.SearchIDs(ctx, q, cutoff)
				results[i] <- searchResult{ids: ids, err: err}
			}()
		}
	}()

	var (
		report  domain.FetchReport
		seen    = map[string]struct{}{}
		emitted = map[string]struct{}{}
	)

	for i, q := range queries {
		var res searchResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			return report, fmt.Errorf("fetch aborted: %w", ctx.Err())
		}

		outcome, videos, err := a.processQuery(ctx, q, res, seen, emitted)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			a.logger.Warn("quota exceeded, stopping remaining queries",
				"query", q, "remaining", len(queries)-i-1)
			return report, fmt.Errorf("query %q: %w", q, err)
		}
		report.Videos = append(report.Videos, videos...)

		<-slots
	}

	a.logger.Debug("fetch done", "queries", len(queries), "videos", len(report.Videos))
	return report, nil
}

// processQuery applies dedup and detail retrieval to one search result. The
// returned error is non-nil only for quota exhaustion.
func (a *Aggregator) processQuery(ctx context.Context, q string, res searchResult, seen, emitted map[string]struct{}) (domain.QueryOutcome, []domain.Video, error) {
	outcome := domain.QueryOutcome{Query: q, Status: domain.QueryOK, Found: len(res.ids)}

	if res.err != nil {
		return a.fail(outcome, res.err)
	}

	fresh := make([]string, 0, len(res.ids))
	for _, id := range res.ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, id)
	}
	outcome.New = len(fresh)

	details, err := a.fetchDetails(ctx, fresh)
	if err != nil {
		return a.fail(outcome, err)
	}

	requested := make(map[string]struct{}, len(fresh))
	for _, id := range fresh {
		requested[id] = struct{}{}
	}

	videos := make([]domain.Video, 0, len(details))
	for _, v := range details {
		if _, ok := requested[v.ID]; !ok {
			continue
		}
		if _, dup := emitted[v.ID]; dup {
			continue
		}
		emitted[v.ID] = struct{}{}
		videos = append(videos, v)
	}
	outcome.Fetched = len(videos)

	a.logger.Info("query done", "query", q, "found", outcome.Found, "new", outcome.New, "videos", outcome.Fetched)
	return outcome, videos, nil
}

func (a *Aggregator) fail(outcome domain.QueryOutcome, err error) (domain.QueryOutcome, []domain.Video, error) {
	outcome.Error = err.Error()
	if errors.Is(err, domain.ErrQuotaExceeded) {
		outcome.Status = domain.QueryQuotaExceeded
		return outcome, nil, err
	}
	outcome.Status = domain.QuerySkipped
	a.logger.Error("query failed, skipping", "query", outcome.Query, "error", err)
	return outcome, nil, nil
}

// fetchDetails retrieves ids in bounded batches, concurrently, preserving batch order.
func (a *Aggregator) fetchDetails(ctx context.Context, ids []string) ([]domain.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	batches := chunk(ids, a.opts.BatchSize)
	parts := make([][]domain.Video, len(batches))
	errs := make([]error, len(batches))

	// Only quota cancels sibling batches; other failures are joined after Wait.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.DetailConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			videos, err := a.platform.VideoDetails(gctx, batch)
			if err != nil {
				err = fmt.Errorf("details batch %d: %w", i, err)
				if errors.Is(err, domain.ErrQuotaExceeded) {
					return err
				}
				errs[i] = err
				return nil
			}
			parts[i] = videos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var out []domain.Video
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
