package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

const (
	// MaxBatchSize is the number of ids videos.list accepts per call.
	MaxBatchSize = 50

	watchURLFormat = "https://www.youtube.com/watch?v=%s"
)

// Options tunes search parameters and call limits.
type Options struct {
	MaxResults        int64
	RegionCode        string
	RelevanceLanguage string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

// Client implements ports.VideoPlatform on top of the YouTube Data API v3.
type Client struct {
	service *yt.Service
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.VideoPlatform = (*Client)(nil)

// NewClient creates the API service. Without extra client options the API key
// authenticates every request.
func NewClient(ctx context.Context, apiKey string, opts Options, log *slog.Logger, clientOpts ...option.ClientOption) (*Client, error) {
	if len(clientOpts) == 0 {
		if apiKey == "" {
			return nil, fmt.Errorf("missing YouTube API key")
		}
		clientOpts = []option.ClientOption{option.WithAPIKey(apiKey)}
	}

	service, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return newClient(service, opts, log), nil
}

func newClient(service *yt.Service, opts Options, log *slog.Logger) *Client {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 25
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		service: service,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
	}
}

// SearchIDs returns the ids of videos matching query published after the cutoff.
func (c *Client) SearchIDs(ctx context.Context, query string, publishedAfter time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	call := c.service.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		MaxResults(c.opts.MaxResults)
	if c.opts.RegionCode != "" {
		call = call.RegionCode(c.opts.RegionCode)
	}
	if c.opts.RelevanceLanguage != "" {
		call = call.RelevanceLanguage(c.opts.RelevanceLanguage)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, classify(err))
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}

	c.debug("search done", "query", query, "ids", len(ids))
	return ids, nil
}

// VideoDetails fetches snippet, statistics and content details for up to MaxBatchSize ids.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]domain.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("video details: %d ids exceed batch limit %d", len(ids), MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("video details: %w", classify(err))
	}

	videos := make([]domain.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == "" {
			continue
		}
		videos = append(videos, toVideo(item))
	}
	return videos, nil
}

func toVideo(item *yt.Video) domain.Video {
	v := domain.Video{
		ID:   item.Id,
		URL:  fmt.Sprintf(watchURLFormat, item.Id),
		Tags: []string{},
	}

	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Channel = s.ChannelTitle
		v.PublishedAt = parsePublishedAt(s.PublishedAt)
		v.HasChapters = HasChapters(s.Description)
		v.ThumbnailURL = highThumbnail(s.Thumbnails)
		tags := s.Tags
		if len(tags) > domain.MaxTags {
			tags = tags[:domain.MaxTags]
		}
		v.Tags = append(v.Tags, tags...)
	}

	if d := item.ContentDetails; d != nil {
		v.DurationSeconds = ParseDuration(d.Duration)
	}

	if st := item.Statistics; st != nil {
		v.ViewCount = toCount(st.ViewCount)
		v.LikeCount = toCount(st.LikeCount)
	}

	return v
}

func highThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil || t.High == nil {
		return ""
	}
	return t.High.Url
}

func toCount(n uint64) int64 {
	if n > uint64(1<<63-1) {
		return 1<<63 - 1
	}
	return int64(n)
}

// classify maps API errors onto the domain error taxonomy.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", domain.ErrQuotaExceeded, err)
	}
	return err
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
