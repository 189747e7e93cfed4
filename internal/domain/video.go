package domain

import (
	"errors"
	"slices"
	"time"
)

// ErrQuotaExceeded reports that the video platform refused a call because
// the daily usage quota is exhausted.
var ErrQuotaExceeded = errors.New("video platform quota exceeded")

// MaxTags bounds the tag list kept per video.
const MaxTags = 20

// Video is a core entity describing metadata fetched from the video platform.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Channel         string    `json:"channel"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	URL             string    `json:"youtube_url"`
	Tags            []string  `json:"tags"`
	HasChapters     bool      `json:"has_chapters"`
}

// ScoredVideo is a video with its relevance score and detected topics.
// Score and Topics are always produced together by the scorer.
type ScoredVideo struct {
	Video
	Score  float64  `json:"score"`
	Topics []string `json:"topics"`
}

// SearchConfig drives discovery: the ordered list of platform queries.
type SearchConfig struct {
	Queries []string `json:"queries"`
}

// QuotaStatus records whether the last run stopped on quota exhaustion.
type QuotaStatus struct {
	Exceeded   bool       `json:"exceeded"`
	ExceededAt *time.Time `json:"exceeded_at"`
}

// QueryStatus enumerates per-query outcomes of a fetch.
type QueryStatus string

const (
	QueryOK            QueryStatus = "ok"
	QuerySkipped       QueryStatus = "skipped"
	QueryQuotaExceeded QueryStatus = "quota_exceeded"
)

// QueryOutcome summarizes what a single search query contributed.
type QueryOutcome struct {
	Query   string      `json:"query"`
	Status  QueryStatus `json:"status"`
	Found   int         `json:"found"`
	New     int         `json:"new"`
	Fetched int         `json:"fetched"`
	Error   string      `json:"error,omitempty"`
}

// FetchReport is the aggregated result of running every search query.
type FetchReport struct {
	Videos   []Video
	Outcomes []QueryOutcome
}

// Run outcomes reported to observers.
const (
	OutcomeSuccess       = "success"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeFailed        = "failed"
)

// RunResult captures the outcome of one pipeline execution.
type RunResult struct {
	RunID       string         `json:"run_id"`
	Fetched     int            `json:"fetched"`
	Scored      int            `json:"scored"`
	Stored      int            `json:"stored"`
	Queries     []QueryOutcome `json:"queries,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"timestamp"`
}

var defaultQueries = []string{
	"Kubernetes production français",
	"Kubernetes architecture français",
	"Kubernetes retour d'expérience",
	"Kubernetes incident production français",
	"Kubernetes scaling français",
	"Kubernetes observabilité",
	"Kubernetes tutoriel français",
	"Kubernetes déploiement français",
}

// DefaultQueries returns a copy of the built-in query list.
func DefaultQueries() []string {
	return slices.Clone(defaultQueries)
}

// DefaultSearchConfig is used when no configuration has been saved.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{Queries: DefaultQueries()}
}
