package metrics

import (
	"context"
	"time"
)

// NoOpMetrics is a no-op implementation of Recorder.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new no-op metrics recorder
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (n *NoOpMetrics) RecordIssuance(ctx context.Context, outcome string, duration time.Duration) {}

func (n *NoOpMetrics) RecordNonceLookup(ctx context.Context, duration time.Duration, err error) {}

func (n *NoOpMetrics) RecordHTTPRequest(ctx context.Context, route, method string, status int, duration time.Duration) {
}
