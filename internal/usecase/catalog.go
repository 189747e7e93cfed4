package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

var (
	// ErrVideoNotFound is returned when an id is absent from the snapshot.
	ErrVideoNotFound = errors.New("video not found")
	// ErrInvalidFilter wraps every list filter validation failure.
	ErrInvalidFilter = errors.New("invalid filter")
)

// List filter bounds.
const (
	DefaultDays     = 30
	MaxDays         = 90
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter selects and paginates snapshot videos.
type ListFilter struct {
	Query    string
	MinScore float64
	Topic    string
	Days     int
	Page     int
	PageSize int
}

// DefaultListFilter returns the filter applied when no parameter is given.
func DefaultListFilter() ListFilter {
	return ListFilter{Days: DefaultDays, Page: 1, PageSize: DefaultPageSize}
}

// Validate checks every bound and reports the first violation.
func (f ListFilter) Validate() error {
	switch {
	case math.IsNaN(f.MinScore) || f.MinScore < 0 || f.MinScore > 100:
		return fmt.Errorf("%w: min_score must be between 0 and 100", ErrInvalidFilter)
	case f.Days < 1 || f.Days > MaxDays:
		return fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidFilter, MaxDays)
	case f.Page < 1:
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidFilter)
	case f.PageSize < 1 || f.PageSize > MaxPageSize:
		return fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidFilter, MaxPageSize)
	}
	return nil
}

func (f ListFilter) cacheKey() string {
	return fmt.Sprintf("list:%s|%g|%s|%d|%d|%d", strings.ToLower(f.Query), f.MinScore, f.Topic, f.Days, f.Page, f.PageSize)
}

// VideoPage is one page of filtered videos.
type VideoPage struct {
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []domain.ScoredVideo `json:"items"`
}

// Overview summarizes the persisted state for status reporting.
type Overview struct {
	VideoCount      int
	LastUpdated     *time.Time
	Queries         []string
	QuotaExceeded   bool
	QuotaExceededAt *time.Time
}

// CatalogDeps lists the stores the read side needs. Cache is optional.
type CatalogDeps struct {
	Snapshots ports.SnapshotStore
	Settings  ports.SearchConfigStore
	Quota     ports.QuotaStore
	Cache     ports.Cache
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Catalog serves reads from the last persisted snapshot.
type Catalog struct {
	snapshots ports.SnapshotStore
	settings  ports.SearchConfigStore
	quota     ports.QuotaStore
	cache     ports.Cache
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalog builds the read-side use case.
func NewCatalog(deps CatalogDeps) *Catalog {
	c := &Catalog{
		snapshots: deps.Snapshots,
		settings:  deps.Settings,
		quota:     deps.Quota,
		cache:     deps.Cache,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// List filters the snapshot and returns the requested page.
func (c *Catalog) List(ctx context.Context, f ListFilter) (VideoPage, error) {
	if err := f.Validate(); err != nil {
		return VideoPage{}, err
	}

	key := f.cacheKey()
	var page VideoPage
	if c.cached(ctx, key, &page) {
		return page, nil
	}

	videos, err := c.snapshots.LoadVideos(ctx)
	if err != nil {
		return VideoPage{}, fmt.Errorf("load videos: %w", err)
	}

	page = FilterVideos(videos, f, c.now())
	c.store(ctx, key, page)
	return page, nil
}

// Get returns one video by id.
func (c *Catalog) Get(ctx context.Context, id string) (domain.ScoredVideo, error) {
	key := "video:" + id
	var v domain.ScoredVideo
	if c.cached(ctx, key, &v) {
		return v, nil
	}

	videos, err := c.snapshots.LoadVideos(ctx)
	if err != nil {
		return domain.ScoredVideo{}, fmt.Errorf("load videos: %w", err)
	}
	for _, v := range videos {
		if v.ID == id {
			c.store(ctx, key, v)
			return v, nil
		}
	}
	return domain.ScoredVideo{}, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
}

// SearchConfig returns the active query list.
func (c *Catalog) SearchConfig(ctx context.Context) (domain.SearchConfig, error) {
	cfg, err := c.settings.LoadSearchConfig(ctx)
	if err != nil {
		return domain.SearchConfig{}, fmt.Errorf("load search config: %w", err)
	}
	if len(cfg.Queries) == 0 {
		cfg = domain.DefaultSearchConfig()
	}
	return cfg, nil
}

// Overview gathers counts, snapshot age, queries and quota state.
func (c *Catalog) Overview(ctx context.Context) (Overview, error) {
	videos, err := c.snapshots.LoadVideos(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load videos: %w", err)
	}

	out := Overview{VideoCount: len(videos)}

	modified, ok, err := c.snapshots.LastUpdated(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("snapshot mtime: %w", err)
	}
	if ok {
		out.LastUpdated = &modified
	}

	cfg, err := c.SearchConfig(ctx)
	if err != nil {
		return Overview{}, err
	}
	out.Queries = cfg.Queries

	quota, err := c.quota.LoadQuotaStatus(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load quota status: %w", err)
	}
	out.QuotaExceeded = quota.Exceeded
	out.QuotaExceededAt = quota.ExceededAt

	return out, nil
}

func (c *Catalog) cached(ctx context.Context, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Catalog) store(ctx context.Context, key string, value any) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// FilterVideos applies f to videos in snapshot order. Videos with an unknown
// publish time always pass the recency filter.
func FilterVideos(videos []domain.ScoredVideo, f ListFilter, now time.Time) VideoPage {
	needle := strings.ToLower(strings.TrimSpace(f.Query))
	cutoff := now.Add(-time.Duration(f.Days) * 24 * time.Hour)

	matched := make([]domain.ScoredVideo, 0, len(videos))
	for _, v := range videos {
		if needle != "" && !matchesText(v, needle) {
			continue
		}
		if v.Score < f.MinScore {
			continue
		}
		if f.Topic != "" && !slices.Contains(v.Topics, f.Topic) {
			continue
		}
		if !v.PublishedAt.IsZero() && v.PublishedAt.Before(cutoff) {
			continue
		}
		matched = append(matched, v)
	}

	page := VideoPage{Total: len(matched), Page: f.Page, PageSize: f.PageSize, Items: []domain.ScoredVideo{}}
	start := (f.Page - 1) * f.PageSize
	if start < len(matched) {
		end := min(start+f.PageSize, len(matched))
		page.Items = matched[start:end]
	}
	return page
}

func matchesText(v domain.ScoredVideo, needle string) bool {
	if strings.Contains(strings.ToLower(v.Title), needle) || strings.Contains(strings.ToLower(v.Channel), needle) {
		return true
	}
	for _, tag := range v.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
