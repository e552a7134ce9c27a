// Package metrics exposes Prometheus collectors for the HTTP API, the query
// engine and the result cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realty_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realty_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// QueryTotal counts query engine evaluations by kind (search, stats, featured).
	QueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realty_query_runs_total",
			Help: "Total number of query engine evaluations",
		},
		[]string{"kind"},
	)
	// QueryMatches is the number of records matched per evaluation.
	QueryMatches = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realty_query_matches",
			Help:    "Records matched per query engine evaluation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)
	// CacheTotal counts result cache lookups by outcome (hit, miss, error).
	CacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realty_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"outcome"},
	)
	// SnapshotLoads counts catalog snapshot reloads from the store.
	SnapshotLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realty_snapshot_loads_total",
			Help: "Total number of catalog snapshot loads",
		},
	)
	// BackupsTotal counts scheduled backups by status.
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realty_backups_total",
			Help: "Total number of scheduled backups",
		},
		[]string{"status"},
	)
)

// ObserveQuery records one engine evaluation that matched n records.
func ObserveQuery(kind string, n int) {
	QueryTotal.WithLabelValues(kind).Inc()
	QueryMatches.WithLabelValues(kind).Observe(float64(n))
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
