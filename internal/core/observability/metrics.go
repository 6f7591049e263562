// Package observability holds the prometheus metrics of the editor.
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

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geo_backend_latency_seconds",
			Help:    "Latency of geo-object backend calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation", "category"},
	)

	storeFetchSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "object_store_fetch_seconds",
			Help:    "Duration of object store refreshes by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"category", "outcome"},
	)

	captureSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_sessions_total",
			Help: "Capture session terminations by outcome.",
		},
		[]string{"category", "outcome"},
	)

	validationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "User input rejections by reason.",
		},
		[]string{"reason"},
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

func ObserveBackendCall(operation, category string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(operation, category).Observe(durationSeconds)
}

func ObserveStoreFetch(category, outcome string, durationSeconds float64) {
	storeFetchSeconds.WithLabelValues(category, outcome).Observe(durationSeconds)
}

// IncCaptureSession records how a session ended: committed, cancelled
// or discarded (reselect while collecting).
func IncCaptureSession(category, outcome string) {
	captureSessionsTotal.WithLabelValues(category, outcome).Inc()
}

func IncValidationFailure(reason string) {
	validationFailuresTotal.WithLabelValues(reason).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
