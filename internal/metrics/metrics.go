// Package metrics exposes Prometheus collectors for HTTP requests, upstream
// calls, cache lookups and report outcomes
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry        *prometheus.Registry
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	reports         *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fairval",
			Name:      "upstream_calls_total",
			Help:      "Upstream feed calls by source and outcome.",
		}, []string{"source", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fairval",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream feed call latency by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fairval",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fairval",
			Name:      "reports_total",
			Help:      "Reports served by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fairval",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fairval",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12, 30},
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.upstreamCalls,
		m.upstreamLatency,
		m.cacheLookups,
		m.reports,
		m.requests,
		m.requestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpstream records one upstream call
func (m *Metrics) ObserveUpstream(source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.upstreamCalls.WithLabelValues(source, outcome).Inc()
	m.upstreamLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// CacheLookup records a cache hit or miss
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// Report records a served report
func (m *Metrics) Report(kind, outcome string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest records one served HTTP request. route is the matched
// route pattern so label cardinality stays bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
