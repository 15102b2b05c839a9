// Package metrics defines the Prometheus collectors used across the engine
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Every method is safe to call on a
// nil *Metrics, so components can run without instrumentation.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PostingsAddedTotal  *prometheus.CounterVec
	PostingsRemoved     *prometheus.CounterVec
	IndexSearchesTotal  *prometheus.CounterVec
	IndexSearchLatency  *prometheus.HistogramVec
	ExpressionsTotal    *prometheus.CounterVec
	SnippetsTotal       prometheus.Counter
	JobsTotal           *prometheus.CounterVec
	SnapshotsTotal      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		PostingsAddedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_postings_added_total",
				Help: "Total postings added by index column.",
			},
			[]string{"index"},
		),
		PostingsRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_postings_removed_total",
				Help: "Total postings removed by index column.",
			},
			[]string{"index"},
		),
		IndexSearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_searches_total",
				Help: "Total index column searches by index and result type (hit, zero_result).",
			},
			[]string{"index", "result_type"},
		),
		IndexSearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "index_search_latency_seconds",
				Help:    "Index column search latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"index"},
		),
		ExpressionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expressions_executed_total",
				Help: "Total expression executions by status (ok, error).",
			},
			[]string{"status"},
		),
		SnippetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "snippets_extracted_total",
				Help: "Total snippet excerpts produced.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobs_total",
				Help: "Total background jobs by type and final status.",
			},
			[]string{"type", "status"},
		),
		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshots_total",
				Help: "Total database snapshot operations by operation (save, load) and status.",
			},
			[]string{"operation", "status"},
		),
	}

	m.Registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PostingsAddedTotal,
		m.PostingsRemoved,
		m.IndexSearchesTotal,
		m.IndexSearchLatency,
		m.ExpressionsTotal,
		m.SnippetsTotal,
		m.JobsTotal,
		m.SnapshotsTotal,
	)
	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePostings(index string, added, removed int) {
	if m == nil {
		return
	}
	if added > 0 {
		m.PostingsAddedTotal.WithLabelValues(index).Add(float64(added))
	}
	if removed > 0 {
		m.PostingsRemoved.WithLabelValues(index).Add(float64(removed))
	}
}

func (m *Metrics) ObserveSearch(index string, hits int, elapsed time.Duration) {
	if m == nil {
		return
	}
	resultType := "hit"
	if hits == 0 {
		resultType = "zero_result"
	}
	m.IndexSearchesTotal.WithLabelValues(index, resultType).Inc()
	m.IndexSearchLatency.WithLabelValues(index).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExpression(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ExpressionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSnippets(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SnippetsTotal.Add(float64(n))
}

func (m *Metrics) ObserveJob(jobType, status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(jobType, status).Inc()
}

func (m *Metrics) ObserveSnapshot(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SnapshotsTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
