package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"YTVeille/internal/domain"
)

var errBoom = errors.New("boom")

type fakePlatform struct {
	mu       sync.Mutex
	searches map[string][]string
	fail     map[string]error
	extra    []domain.Video
	calls    []string
	batches  [][]string
	detailFn func(ids []string) error
}

func (f *fakePlatform) SearchIDs(_ context.Context, query string, _ time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	if err := f.fail[query]; err != nil {
		return nil, err
	}
	return slices.Clone(f.searches[query]), nil
}

func (f *fakePlatform) VideoDetails(_ context.Context, ids []string) ([]domain.Video, error) {
	f.mu.Lock()
	f.batches = append(f.batches, slices.Clone(ids))
	fn := f.detailFn
	extra := f.extra
	f.mu.Unlock()

	if fn != nil {
		if err := fn(ids); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Video, 0, len(ids)+len(extra))
	for _, id := range ids {
		out = append(out, video(id))
	}
	return append(out, extra...), nil
}

func (f *fakePlatform) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func video(id string) domain.Video {
	return domain.Video{
		ID:          id,
		Title:       "Video " + id,
		URL:         "https://www.youtube.com/watch?v=" + id,
		PublishedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Tags:        []string{},
	}
}

func quotaErr() error {
	return fmt.Errorf("search: %w", domain.ErrQuotaExceeded)
}

type fakeSource struct {
	report domain.FetchReport
	err    error
	block  chan struct{}
	seen   [][]string
}

func (f *fakeSource) FetchAll(_ context.Context, queries []string) (domain.FetchReport, error) {
	if f.block != nil {
		<-f.block
	}
	f.seen = append(f.seen, queries)
	return f.report, f.err
}

type memStore struct {
	mu       sync.Mutex
	videos   []domain.ScoredVideo
	saves    int
	cfg      domain.SearchConfig
	quota    domain.QuotaStatus
	quotaSet int
	saveErr  error
	modified time.Time
}

func (m *memStore) LoadVideos(context.Context) ([]domain.ScoredVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.videos), nil
}

func (m *memStore) SaveVideos(_ context.Context, videos []domain.ScoredVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.videos = slices.Clone(videos)
	m.saves++
	return nil
}

func (m *memStore) LastUpdated(context.Context) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modified, !m.modified.IsZero(), nil
}

func (m *memStore) LoadSearchConfig(context.Context) (domain.SearchConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *memStore) SaveSearchConfig(_ context.Context, cfg domain.SearchConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	return nil
}

func (m *memStore) LoadQuotaStatus(context.Context) (domain.QuotaStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quota, nil
}

func (m *memStore) SaveQuotaStatus(_ context.Context, status domain.QuotaStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = status
	m.quotaSet++
	return nil
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (r *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	r.digests = append(r.digests, digest)
	return r.err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	quota    []bool
}

func (r *recordingObserver) ObserveRun(outcome string, _ time.Duration, _ domain.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingObserver) SetQuotaExceeded(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quota = append(r.quota, v)
}

type countingCache struct {
	data        map[string][]byte
	invalidated int
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, error) {
	return c.data[key], nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte) error {
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidated++
	c.data = nil
	return nil
}
