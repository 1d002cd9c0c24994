// Package metrics provides Prometheus metrics for the profile server
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors, registered on its own registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Profile lifecycle
	ImportsTotal      *prometheus.CounterVec
	PublishesTotal    *prometheus.CounterVec
	ValidationsTotal  *prometheus.CounterVec
	ExportCacheTotal  *prometheus.CounterVec
	SnapshotJobsTotal *prometheus.CounterVec
}

// New creates and registers all metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profile_server_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "profile_server_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.ImportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_imports_total",
			Help: "Profile document imports by outcome",
		},
		[]string{"outcome"},
	)

	m.PublishesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_publishes_total",
			Help: "Version publications by outcome",
		},
		[]string{"outcome"},
	)

	m.ValidationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_validations_total",
			Help: "Profile document validations by result",
		},
		[]string{"result"},
	)

	m.ExportCacheTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_export_cache_total",
			Help: "Export cache lookups by result",
		},
		[]string{"result"},
	)

	m.SnapshotJobsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_server_snapshot_jobs_total",
			Help: "Snapshot archive jobs by outcome",
		},
		[]string{"outcome"},
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Outcome is a label helper for counters keyed by success/failure
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Nil-safe recorders so services can run without metrics in tests

func (m *Metrics) RecordImport(err error) {
	if m != nil {
		m.ImportsTotal.WithLabelValues(Outcome(err)).Inc()
	}
}

func (m *Metrics) RecordPublish(err error) {
	if m != nil {
		m.PublishesTotal.WithLabelValues(Outcome(err)).Inc()
	}
}

func (m *Metrics) RecordValidation(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.ValidationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordExportCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ExportCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSnapshotJob(err error) {
	if m != nil {
		m.SnapshotJobsTotal.WithLabelValues(Outcome(err)).Inc()
	}
}
