package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"YTVeille/internal/domain"
)

func TestObserveRun(t *testing.T) {
	t.Parallel()

	c := New()
	c.ObserveRun(domain.OutcomeSuccess, 3*time.Second, domain.RunResult{
		Stored: 12,
		Queries: []domain.QueryOutcome{
			{Status: domain.QueryOK},
			{Status: domain.QueryOK},
			{Status: domain.QuerySkipped},
		},
	})
	c.ObserveRun(domain.OutcomeQuotaExceeded, time.Second, domain.RunResult{
		Queries: []domain.QueryOutcome{{Status: domain.QueryQuotaExceeded}},
	})

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues(domain.OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(c.queryOutcomes.WithLabelValues(string(domain.QueryOK))); got != 2 {
		t.Fatalf("expected 2 ok queries, got %v", got)
	}
	if got := testutil.ToFloat64(c.storedVideos); got != 12 {
		t.Fatalf("failed runs must not reset the stored gauge, got %v", got)
	}
	if got := testutil.CollectAndCount(c.runDuration); got != 1 {
		t.Fatalf("expected one histogram, got %d", got)
	}
}

func TestSetQuotaExceeded(t *testing.T) {
	t.Parallel()

	c := New()
	c.SetQuotaExceeded(true)
	if got := testutil.ToFloat64(c.quotaExceeded); got != 1 {
		t.Fatalf("expected gauge 1, got %v", got)
	}
	c.SetQuotaExceeded(false)
	if got := testutil.ToFloat64(c.quotaExceeded); got != 0 {
		t.Fatalf("expected gauge 0, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	c := New()
	c.ObserveRequest("/api/videos", http.MethodGet, "200", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"ytveille_api_request_duration_seconds", "ytveille_quota_exceeded", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}
