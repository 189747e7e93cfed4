package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"YTVeille/internal/domain"
	"YTVeille/internal/ports"
)

const namespace = "ytveille"

// Collector holds the Prometheus collectors of the service.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	storedVideos    prometheus.Gauge
	quotaExceeded   prometheus.Gauge
	queryOutcomes   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ ports.RunObserver = (*Collector)(nil)

// New registers every collector on a dedicated registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		storedVideos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_videos",
			Help:      "Videos in the last persisted snapshot.",
		}),
		quotaExceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_exceeded",
			Help:      "1 while the platform quota is exhausted.",
		}),
		queryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_outcomes_total",
			Help:      "Search query outcomes, by status.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request duration in seconds, by endpoint and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.runsTotal,
		c.runDuration,
		c.storedVideos,
		c.quotaExceeded,
		c.queryOutcomes,
		c.requestDuration,
	)
	return c
}

// ObserveRun records one finished pipeline run.
func (c *Collector) ObserveRun(outcome string, duration time.Duration, result domain.RunResult) {
	c.runsTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(duration.Seconds())
	for _, q := range result.Queries {
		c.queryOutcomes.WithLabelValues(string(q.Status)).Inc()
	}
	if outcome == domain.OutcomeSuccess {
		c.storedVideos.Set(float64(result.Stored))
	}
}

// SetQuotaExceeded mirrors the persisted quota flag.
func (c *Collector) SetQuotaExceeded(exceeded bool) {
	if exceeded {
		c.quotaExceeded.Set(1)
		return
	}
	c.quotaExceeded.Set(0)
}

// SetStoredVideos seeds the gauge from an existing snapshot at startup.
func (c *Collector) SetStoredVideos(n int) {
	c.storedVideos.Set(float64(n))
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(endpoint, method, status string, elapsed time.Duration) {
	c.requestDuration.WithLabelValues(endpoint, method, status).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
