package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YTVeille/internal/domain"
)

func TestUpsertQuery(t *testing.T) {
	t.Parallel()

	seen := time.Date(2025, time.March, 10, 6, 0, 0, 0, time.UTC)
	videos := []domain.ScoredVideo{
		{Video: domain.Video{ID: "a", Title: "A", PublishedAt: seen.AddDate(0, 0, -1)}, Score: 50, Topics: []string{"scaling", "storage"}},
		{Video: domain.Video{ID: "b", Title: "B"}, Score: 10},
	}

	query, args, err := upsertQuery(videos, seen).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO video_archive (video_id,"), query)
	assert.Contains(t, query, "$24")
	assert.NotContains(t, query, "?")
	assert.Contains(t, query, "ON CONFLICT (video_id) DO UPDATE")
	assert.NotContains(t, query, "first_seen_at = EXCLUDED")

	require.Len(t, args, 24)
	assert.Equal(t, "a", args[0])
	assert.Equal(t, "scaling,storage", args[9])
	assert.Nil(t, args[15], "unknown publish time is stored as NULL")
	assert.Equal(t, seen, args[22])
}

func TestArchiveWithoutDB(t *testing.T) {
	t.Parallel()

	archive := NewPostgresArchive(nil)
	require.NoError(t, archive.EnsureSchema(context.Background()))
	require.NoError(t, archive.Archive(context.Background(), []domain.ScoredVideo{{}}, time.Now()))
	require.NoError(t, archive.Close())
}
