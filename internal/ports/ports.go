package ports

import (
	"context"
	"time"

	"YTVeille/internal/domain"
)

// VideoPlatform is the external search and detail capability.
// Implementations report quota exhaustion with domain.ErrQuotaExceeded.
type VideoPlatform interface {
	SearchIDs(ctx context.Context, query string, publishedAfter time.Time) ([]string, error)
	VideoDetails(ctx context.Context, ids []string) ([]domain.Video, error)
}

// VideoSource runs a set of search queries and returns deduplicated videos.
type VideoSource interface {
	FetchAll(ctx context.Context, queries []string) (domain.FetchReport, error)
}

// SnapshotStore reads and atomically replaces the scored video collection.
type SnapshotStore interface {
	LoadVideos(ctx context.Context) ([]domain.ScoredVideo, error)
	SaveVideos(ctx context.Context, videos []domain.ScoredVideo) error
	LastUpdated(ctx context.Context) (time.Time, bool, error)
}

// SearchConfigStore persists the operator-controlled query list.
type SearchConfigStore interface {
	LoadSearchConfig(ctx context.Context) (domain.SearchConfig, error)
	SaveSearchConfig(ctx context.Context, cfg domain.SearchConfig) error
}

// QuotaStore persists the quota-exceeded flag.
type QuotaStore interface {
	LoadQuotaStatus(ctx context.Context) (domain.QuotaStatus, error)
	SaveQuotaStatus(ctx context.Context, status domain.QuotaStatus) error
}

// VideoArchive keeps a long-lived history of every stored video.
type VideoArchive interface {
	Archive(ctx context.Context, videos []domain.ScoredVideo, seenAt time.Time) error
}

// Cache stores serialized read responses; a miss returns nil data and no error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
}

// Notifier streams the top videos of a run to a chat channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// RunObserver records pipeline outcomes for monitoring.
type RunObserver interface {
	ObserveRun(outcome string, duration time.Duration, result domain.RunResult)
	SetQuotaExceeded(exceeded bool)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
