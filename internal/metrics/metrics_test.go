package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", fmt.Errorf("call nonces: %w", context.DeadlineExceeded), "timeout"},
		{"cancelled", context.Canceled, "cancelled"},
		{"timeout text", errors.New("i/o Timeout"), "timeout"},
		{"rate limited", errors.New("429 Too Many Requests"), "rate_limited"},
		{"reverted", errors.New("execution reverted"), "contract_error"},
		{"no code", errors.New("no contract code at given address"), "contract_error"},
		{"refused", errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), "connection_error"},
		{"dns", errors.New("dial tcp: lookup rpc.invalid: no such host"), "connection_error"},
		{"eof", errors.New("unexpected EOF"), "connection_error"},
		{"other", errors.New("something odd"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	assert.IsType(t, &NoOpMetrics{}, New(nil, logger))
	assert.IsType(t, &PrometheusMetrics{}, New(prometheus.NewRegistry(), logger))
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)
	ctx := context.Background()

	m.RecordIssuance(ctx, "issued", 20*time.Millisecond)
	m.RecordIssuance(ctx, "issued", 30*time.Millisecond)
	m.RecordIssuance(ctx, "invalid_address", time.Millisecond)

	m.RecordNonceLookup(ctx, 10*time.Millisecond, nil)
	m.RecordNonceLookup(ctx, 10*time.Millisecond, errors.New("connection refused"))

	m.RecordHTTPRequest(ctx, "/sign", "POST", 200, 25*time.Millisecond)
	m.RecordHTTPRequest(ctx, "/sign", "POST", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issuances.WithLabelValues("issued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issuances.WithLabelValues("invalid_address")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nonceLookups.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nonceLookups.WithLabelValues("connection_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/sign", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/sign", "POST", "400")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"uid_signer_attestations_total",
		"uid_signer_issue_duration_seconds",
		"uid_signer_nonce_lookups_total",
		"uid_signer_nonce_lookup_duration_seconds",
		"uid_signer_http_requests_total",
		"uid_signer_http_request_duration_seconds",
	}, names)
}

func TestPrometheusMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusMetrics(reg)

	assert.Panics(t, func() { NewPrometheusMetrics(reg) })
}

func TestNoOpMetrics(t *testing.T) {
	var r Recorder = NewNoOpMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		r.RecordIssuance(ctx, "issued", time.Second)
		r.RecordNonceLookup(ctx, time.Second, errors.New("boom"))
		r.RecordHTTPRequest(ctx, "/", "GET", 200, time.Second)
	})
}
