// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamFetchSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_fetch_duration_seconds",
			Help:    "Latency of remote dataset fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"dataset", "result"},
	)

	datasetRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_loaded_total",
			Help: "Rows accepted into a dataset snapshot.",
		},
		[]string{"dataset"},
	)

	datasetRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_dropped_total",
			Help: "Rows dropped during dataset normalization.",
		},
		[]string{"dataset", "reason"},
	)

	cacheOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Snapshot cache operations by outcome.",
		},
		[]string{"op", "result"},
	)

	cacheOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Duration of snapshot cache operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	snapshotResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_results_total",
			Help: "Snapshot lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	aggregationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of spatial aggregation passes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"predicate"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Currently active login sessions.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveFetch(dataset string, err error, durationSeconds float64) {
	upstreamFetchSeconds.WithLabelValues(dataset, result(err)).Observe(durationSeconds)
}

func AddRowsLoaded(dataset string, n int) {
	if n > 0 {
		datasetRowsLoaded.WithLabelValues(dataset).Add(float64(n))
	}
}

func AddRowsDropped(dataset, reason string, n int) {
	if n > 0 {
		datasetRowsDropped.WithLabelValues(dataset, reason).Add(float64(n))
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cacheOpTotal.WithLabelValues(op, result(err)).Inc()
	cacheOpSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncSnapshotHit(tier string)  { snapshotResults.WithLabelValues(tier, "hit").Inc() }
func IncSnapshotMiss(tier string) { snapshotResults.WithLabelValues(tier, "miss").Inc() }

func ObserveAggregation(predicate string, durationSeconds float64) {
	aggregationSeconds.WithLabelValues(predicate).Observe(durationSeconds)
}

func SetSessionsActive(n int) { sessionsActive.Set(float64(n)) }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
