// Package metrics provides observability for attestation issuance.
// Callers depend on the Recorder interface so a no-op implementation can be
// swapped in when no Prometheus registry is configured.
package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Recorder defines the interface for recording issuer and transport metrics.
type Recorder interface {
	// Issuance metrics
	RecordIssuance(ctx context.Context, outcome string, duration time.Duration)
	RecordNonceLookup(ctx context.Context, duration time.Duration, err error)

	// HTTP metrics
	RecordHTTPRequest(ctx context.Context, route, method string, status int, duration time.Duration)
}

// New returns a Prometheus recorder registered on reg, or a no-op recorder when reg is nil.
func New(reg prometheus.Registerer, logger *zap.Logger) Recorder {
	if reg == nil {
		logger.Debug("no prometheus registry configured, metrics disabled")
		return NewNoOpMetrics()
	}
	return NewPrometheusMetrics(reg)
}

// ClassifyError categorizes RPC errors for metric labels to keep cardinality low.
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "too many requests"):
		return "rate_limited"
	case strings.Contains(errStr, "execution reverted") || strings.Contains(errStr, "no contract code"):
		return "contract_error"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "no such host") || strings.Contains(errStr, "eof"):
		return "connection_error"
	default:
		return "unknown"
	}
}
