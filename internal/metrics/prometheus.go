package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements Recorder on a Prometheus registry.
type PrometheusMetrics struct {
	// Issuance metrics
	issuances        *prometheus.CounterVec
	issuanceDuration prometheus.Histogram

	// Registry metrics
	nonceLookups        *prometheus.CounterVec
	nonceLookupDuration prometheus.Histogram

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers all uid-signer metrics on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		issuances: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uid_signer_attestations_total",
			Help: "Attestation issuance attempts by outcome",
		}, []string{"outcome"}), // outcome: "issued" or an error kind

		issuanceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "uid_signer_issue_duration_seconds",
			Help:    "Duration of a full issuance including the nonce lookup",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		nonceLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uid_signer_nonce_lookups_total",
			Help: "Registry nonces() calls by result",
		}, []string{"result"}),

		nonceLookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "uid_signer_nonce_lookup_duration_seconds",
			Help:    "Duration of registry nonces() calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uid_signer_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uid_signer_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *PrometheusMetrics) RecordIssuance(ctx context.Context, outcome string, duration time.Duration) {
	m.issuances.WithLabelValues(outcome).Inc()
	m.issuanceDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordNonceLookup(ctx context.Context, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = ClassifyError(err)
	}
	m.nonceLookups.WithLabelValues(result).Inc()
	m.nonceLookupDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordHTTPRequest(ctx context.Context, route, method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
