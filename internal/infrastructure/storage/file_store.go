package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

const (
	configFile = "config.json"
	quotaFile  = "quota_status.json"

	filePerm os.FileMode = 0o644
	dirPerm  os.FileMode = 0o755
)

// FileStore keeps the snapshot, search config and quota status as JSON files
// in one directory. Every write replaces the target file atomically.
type FileStore struct {
	videosPath string
	configPath string
	quotaPath  string
}

var (
	_ ports.SnapshotStore     = (*FileStore)(nil)
	_ ports.SearchConfigStore = (*FileStore)(nil)
	_ ports.QuotaStore        = (*FileStore)(nil)
)

// NewFileStore roots the store at the directory of dataPath, which names the
// snapshot file itself.
func NewFileStore(dataPath string) *FileStore {
	dir := filepath.Dir(dataPath)
	return &FileStore{
		videosPath: dataPath,
		configPath: filepath.Join(dir, configFile),
		quotaPath:  filepath.Join(dir, quotaFile),
	}
}

// LoadVideos returns the persisted snapshot, empty when none exists yet.
func (s *FileStore) LoadVideos(_ context.Context) ([]domain.ScoredVideo, error) {
	videos := []domain.ScoredVideo{}
	found, err := readJSON(s.videosPath, &videos)
	if err != nil {
		return nil, fmt.Errorf("load videos: %w", err)
	}
	if !found || videos == nil {
		return []domain.ScoredVideo{}, nil
	}
	return videos, nil
}

// SaveVideos replaces the snapshot.
func (s *FileStore) SaveVideos(_ context.Context, videos []domain.ScoredVideo) error {
	if videos == nil {
		videos = []domain.ScoredVideo{}
	}
	if err := writeJSON(s.videosPath, videos); err != nil {
		return fmt.Errorf("save videos: %w", err)
	}
	return nil
}

// LastUpdated reports the snapshot modification time.
func (s *FileStore) LastUpdated(_ context.Context) (time.Time, bool, error) {
	info, err := os.Stat(s.videosPath)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	return info.ModTime().UTC(), true, nil
}

// LoadSearchConfig falls back to the built-in queries when nothing usable is saved.
func (s *FileStore) LoadSearchConfig(_ context.Context) (domain.SearchConfig, error) {
	var cfg domain.SearchConfig
	found, err := readJSON(s.configPath, &cfg)
	if err != nil {
		return domain.SearchConfig{}, fmt.Errorf("load search config: %w", err)
	}
	if !found || len(cfg.Queries) == 0 {
		return domain.DefaultSearchConfig(), nil
	}
	return cfg, nil
}

// SaveSearchConfig overwrites the query list.
func (s *FileStore) SaveSearchConfig(_ context.Context, cfg domain.SearchConfig) error {
	if err := writeJSON(s.configPath, cfg); err != nil {
		return fmt.Errorf("save search config: %w", err)
	}
	return nil
}

// LoadQuotaStatus returns {exceeded:false} when no status was recorded.
func (s *FileStore) LoadQuotaStatus(_ context.Context) (domain.QuotaStatus, error) {
	var status domain.QuotaStatus
	if _, err := readJSON(s.quotaPath, &status); err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("load quota status: %w", err)
	}
	if !status.Exceeded {
		status.ExceededAt = nil
	}
	return status, nil
}

// SaveQuotaStatus records the quota flag.
func (s *FileStore) SaveQuotaStatus(_ context.Context, status domain.QuotaStatus) error {
	if !status.Exceeded {
		status.ExceededAt = nil
	}
	if err := writeJSON(s.quotaPath, status); err != nil {
		return fmt.Errorf("save quota status: %w", err)
	}
	return nil
}

func readJSON(path string, dst any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return renameio.WriteFile(path, buf.Bytes(), filePerm, renameio.WithTempDir(filepath.Dir(path)))
}
