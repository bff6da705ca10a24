// Package tracing wraps OpenTelemetry spans around issuance steps. Without a
// configured provider every span is a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lenda-labs/uid-signer"

// TraceOp starts a span for op and returns a function that ends it, recording err when
// non-nil. The tracer is resolved on every call so a provider installed by Setup applies.
func TraceOp(ctx context.Context, op Operation, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, string(op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(op.kind()))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
