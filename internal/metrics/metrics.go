// Package metrics exposes Prometheus collectors for the digest service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	digestComputationsTotal    prometheus.Counter
	digestBytesTotal           prometheus.Counter
	digestDurationSeconds      prometheus.Histogram
	digestPublishFailuresTotal prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpRateLimitedTotal       prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		digestComputationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_computations_total",
				Help: "Total number of SHA-256 digests computed.",
			},
		)

		digestBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_bytes_total",
				Help: "Total number of payload bytes hashed.",
			},
		)

		digestDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "digest_duration_seconds",
				Help:    "Histogram of time spent hashing a single payload.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		)

		digestPublishFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_publish_failures_total",
				Help: "Total number of digest events that could not be published.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		httpRateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of HTTP requests rejected by the per-client rate limiter.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDigest records one hashed payload. It is a no-op before Init.
func ObserveDigest(size int, duration time.Duration) {
	if digestComputationsTotal == nil {
		return
	}
	digestComputationsTotal.Inc()
	if size > 0 {
		digestBytesTotal.Add(float64(size))
	}
	digestDurationSeconds.Observe(duration.Seconds())
}

// ObservePublishFailure increments the publish failure counter.
func ObservePublishFailure() {
	if digestPublishFailuresTotal == nil {
		return
	}
	digestPublishFailuresTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimited increments the rate limiter rejection counter.
func ObserveRateLimited() {
	if httpRateLimitedTotal == nil {
		return
	}
	httpRateLimitedTotal.Inc()
}
