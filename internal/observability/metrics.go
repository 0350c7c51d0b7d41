// Package observability wires Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "threadly"

// Metrics groups every collector the server exports.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	EnrichDuration *prometheus.HistogramVec
	EnrichDegraded *prometheus.CounterVec

	CounterErrors *prometheus.CounterVec

	RankingUpdates prometheus.Counter
	RankingDropped prometheus.Counter
}

// NewMetrics registers the collectors on reg. Pass a fresh registry in
// tests so repeated construction does not panic.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EnrichDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "post_enrichment_duration_seconds",
			Help:      "Time to enrich a batch of posts.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		EnrichDegraded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_enrichment_degraded_total",
			Help:      "Enriched fields left empty because a lookup failed.",
		}, []string{"field"}),
		CounterErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_errors_total",
			Help:      "Failed best-effort counter updates.",
		}, []string{"op"}),
		RankingUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_score_updates_total",
			Help:      "Post scores recomputed.",
		}),
		RankingDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_queue_dropped_total",
			Help:      "Score updates skipped because the queue was full.",
		}),
	}
}

// NopMetrics returns metrics registered on a throwaway registry.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
