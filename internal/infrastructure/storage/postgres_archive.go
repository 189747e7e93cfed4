package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

const archiveTable = "video_archive"

const archiveSchema = `CREATE TABLE IF NOT EXISTS video_archive (
    video_id         TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    channel          TEXT NOT NULL,
    published_at     TIMESTAMPTZ,
    duration_seconds INTEGER NOT NULL,
    view_count       BIGINT NOT NULL,
    like_count       BIGINT NOT NULL,
    youtube_url      TEXT NOT NULL,
    score            DOUBLE PRECISION NOT NULL,
    topics           TEXT NOT NULL,
    first_seen_at    TIMESTAMPTZ NOT NULL,
    last_seen_at     TIMESTAMPTZ NOT NULL
)`

// archiveBatchSize bounds the rows of one INSERT statement.
const archiveBatchSize = 200

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresArchive upserts every stored video into Postgres.
type PostgresArchive struct {
	db *sql.DB
}

var _ ports.VideoArchive = (*PostgresArchive)(nil)

// OpenPostgresArchive connects through the pgx database/sql driver.
func OpenPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	return NewPostgresArchive(db), nil
}

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

// EnsureSchema creates the archive table when missing.
func (r *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, archiveSchema); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

// Archive upserts videos; first_seen_at is kept from the first insert.
func (r *PostgresArchive) Archive(ctx context.Context, videos []domain.ScoredVideo, seenAt time.Time) error {
	if r.db == nil || len(videos) == 0 {
		return nil
	}

	for start := 0; start < len(videos); start += archiveBatchSize {
		end := min(start+archiveBatchSize, len(videos))
		query, args, err := upsertQuery(videos[start:end], seenAt).ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert archive: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (r *PostgresArchive) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func upsertQuery(videos []domain.ScoredVideo, seenAt time.Time) sq.InsertBuilder {
	q := psql.Insert(archiveTable).Columns(
		"video_id", "title", "channel", "published_at", "duration_seconds",
		"view_count", "like_count", "youtube_url", "score", "topics",
		"first_seen_at", "last_seen_at",
	)

	for _, v := range videos {
		var published any
		if !v.PublishedAt.IsZero() {
			published = v.PublishedAt.UTC()
		}
		q = q.Values(
			v.ID, v.Title, v.Channel, published, v.DurationSeconds,
			v.ViewCount, v.LikeCount, v.URL, v.Score, strings.Join(v.Topics, ","),
			seenAt.UTC(), seenAt.UTC(),
		)
	}

	return q.Suffix(`ON CONFLICT (video_id) DO UPDATE
SET title = EXCLUDED.title,
    channel = EXCLUDED.channel,
    published_at = EXCLUDED.published_at,
    duration_seconds = EXCLUDED.duration_seconds,
    view_count = EXCLUDED.view_count,
    like_count = EXCLUDED.like_count,
    youtube_url = EXCLUDED.youtube_url,
    score = EXCLUDED.score,
    topics = EXCLUDED.topics,
    last_seen_at = EXCLUDED.last_seen_at`)
}
