package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"YTVeille/internal/domain"
)

var catalogNow = time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

func snapshot() []domain.ScoredVideo {
	mk := func(id, title, channel string, score float64, age int, topics ...string) domain.ScoredVideo {
		v := video(id)
		v.Title = title
		v.Channel = channel
		v.PublishedAt = catalogNow.AddDate(0, 0, -age)
		return domain.ScoredVideo{Video: v, Score: score, Topics: append([]string{}, topics...)}
	}

	unknown := mk("nodate", "Sans date", "Chaîne", 30, 0)
	unknown.PublishedAt = time.Time{}
	tagged := mk("tagged", "Démo", "Other", 20, 3)
	tagged.Tags = []string{"Helm"}

	return []domain.ScoredVideo{
		mk("a", "Kubernetes Scaling", "K8s FR", 80, 2, "scaling"),
		mk("b", "Observabilité avancée", "DevOps", 60, 10, "observabilité"),
		mk("old", "Kubernetes ancien", "K8s FR", 50, 45, "scaling"),
		unknown,
		tagged,
	}
}

func listIDs(page VideoPage) []string {
	out := make([]string, 0, len(page.Items))
	for _, v := range page.Items {
		out = append(out, v.ID)
	}
	return out
}

func TestFilterVideos(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		mutate func(*ListFilter)
		want   []string
		total  int
	}{
		"defaults":       {func(*ListFilter) {}, []string{"a", "b", "nodate", "tagged"}, 4},
		"text in title":  {func(f *ListFilter) { f.Query = "kubernetes" }, []string{"a"}, 1},
		"text in chan":   {func(f *ListFilter) { f.Query = "devops" }, []string{"b"}, 1},
		"text in tag":    {func(f *ListFilter) { f.Query = "helm" }, []string{"tagged"}, 1},
		"min score":      {func(f *ListFilter) { f.MinScore = 60 }, []string{"a", "b"}, 2},
		"topic":          {func(f *ListFilter) { f.Topic = "scaling" }, []string{"a"}, 1},
		"wider window":   {func(f *ListFilter) { f.Days = 90; f.Topic = "scaling" }, []string{"a", "old"}, 2},
		"second page":    {func(f *ListFilter) { f.PageSize = 3; f.Page = 2 }, []string{"tagged"}, 4},
		"page past end":  {func(f *ListFilter) { f.Page = 9 }, []string{}, 4},
		"narrow window":  {func(f *ListFilter) { f.Days = 1 }, []string{"nodate"}, 1},
		"no topic match": {func(f *ListFilter) { f.Topic = "storage" }, []string{}, 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := DefaultListFilter()
			tc.mutate(&f)
			page := FilterVideos(snapshot(), f, catalogNow)
			got := listIDs(page)
			if page.Total != tc.total {
				t.Fatalf("expected total %d, got %d", tc.total, page.Total)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
			if page.Items == nil {
				t.Fatalf("items must never be nil")
			}
		})
	}
}

func TestListFilterValidate(t *testing.T) {
	t.Parallel()

	bad := []func(*ListFilter){
		func(f *ListFilter) { f.MinScore = -1 },
		func(f *ListFilter) { f.MinScore = 101 },
		func(f *ListFilter) { f.MinScore = math.NaN() },
		func(f *ListFilter) { f.Days = 0 },
		func(f *ListFilter) { f.Days = 91 },
		func(f *ListFilter) { f.Page = 0 },
		func(f *ListFilter) { f.PageSize = 0 },
		func(f *ListFilter) { f.PageSize = 101 },
	}
	for i, mutate := range bad {
		f := DefaultListFilter()
		mutate(&f)
		if err := f.Validate(); !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("case %d: expected ErrInvalidFilter, got %v", i, err)
		}
	}

	if err := DefaultListFilter().Validate(); err != nil {
		t.Fatalf("default filter must be valid: %v", err)
	}
}

func TestCatalogGetAndCache(t *testing.T) {
	t.Parallel()

	store := &memStore{videos: snapshot()}
	cache := &countingCache{}
	c := NewCatalog(CatalogDeps{Snapshots: store, Settings: store, Quota: store, Cache: cache, Clock: func() time.Time { return catalogNow }})
	ctx := context.Background()

	v, err := c.Get(ctx, "b")
	if err != nil || v.ID != "b" {
		t.Fatalf("expected video b, got %+v err=%v", v, err)
	}
	if _, ok := cache.data["video:b"]; !ok {
		t.Fatalf("expected detail cached")
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}

	page, err := c.List(ctx, DefaultListFilter())
	if err != nil || page.Total != 4 {
		t.Fatalf("unexpected list result: %+v err=%v", page, err)
	}

	store.videos = nil
	cachedPage, err := c.List(ctx, DefaultListFilter())
	if err != nil || cachedPage.Total != 4 {
		t.Fatalf("expected cached page, got %+v err=%v", cachedPage, err)
	}

	if _, err := c.List(ctx, ListFilter{}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalogOverview(t *testing.T) {
	t.Parallel()

	at := catalogNow.Add(-time.Hour)
	store := &memStore{
		videos:   snapshot(),
		modified: catalogNow,
		quota:    domain.QuotaStatus{Exceeded: true, ExceededAt: &at},
	}
	c := NewCatalog(CatalogDeps{Snapshots: store, Settings: store, Quota: store})

	o, err := c.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if o.VideoCount != 5 || o.LastUpdated == nil || !o.QuotaExceeded || o.QuotaExceededAt == nil {
		t.Fatalf("unexpected overview: %+v", o)
	}
	if len(o.Queries) != len(domain.DefaultQueries()) {
		t.Fatalf("expected default queries when none saved, got %v", o.Queries)
	}
}
