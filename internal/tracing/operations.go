package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation represents a traceable operation
type Operation string

const (
	OpIssue       Operation = "attestation.issue" // full issuance
	OpNonceLookup Operation = "registry.nonces"   // nonces(address) view call
	OpSign        Operation = "attestation.sign"  // prefix, sign, self-verify
)

// kind marks the registry call as a client span; everything else is in-process.
func (op Operation) kind() trace.SpanKind {
	if op == OpNonceLookup {
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

// Attribute keys shared by spans
const (
	AttrSubject      = attribute.Key("attestation.subject")
	AttrIdentityType = attribute.Key("attestation.identity_type")
	AttrNonce        = attribute.Key("attestation.nonce")
	AttrContract     = attribute.Key("registry.contract")
)
