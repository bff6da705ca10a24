package attestation

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lenda-labs/uid-signer/internal/metrics"
	"github.com/lenda-labs/uid-signer/internal/tracing"
)

const (
	// DefaultValidityWindow is how long an attestation stays valid after issuance.
	DefaultValidityWindow = time.Hour

	// DefaultIdentityType is used when the caller does not supply one.
	DefaultIdentityType = 1
)

// NonceSource reads the registry's replay counter for an account.
type NonceSource interface {
	Nonce(ctx context.Context, account common.Address) (*big.Int, error)
}

// SignedAttestation is the bundle handed back to the caller for submission on-chain.
type SignedAttestation struct {
	Subject      common.Address
	IdentityType *big.Int
	ExpiresAt    uint64
	Nonce        *big.Int
	Digest       common.Hash
	Signature    []byte
	Signer       common.Address
}

// SignatureHex returns the 0x-prefixed signature.
func (a *SignedAttestation) SignatureHex() string {
	return hexutil.Encode(a.Signature)
}

// Issuer sequences nonce lookup, encoding, signing and self-verification.
// It keeps no per-request state and is safe for concurrent use.
type Issuer struct {
	signer *Signer
	nonces NonceSource

	validity            time.Duration
	defaultIdentityType *big.Int
	now                 func() time.Time

	logger  *zap.Logger
	metrics metrics.Recorder
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithValidityWindow overrides DefaultValidityWindow. Sub-second precision is dropped.
func WithValidityWindow(d time.Duration) Option {
	return func(i *Issuer) {
		i.validity = d
	}
}

// WithDefaultIdentityType overrides DefaultIdentityType.
func WithDefaultIdentityType(id uint64) Option {
	return func(i *Issuer) {
		i.defaultIdentityType = new(big.Int).SetUint64(id)
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(i *Issuer) {
		i.logger = logger
	}
}

func WithMetrics(recorder metrics.Recorder) Option {
	return func(i *Issuer) {
		i.metrics = recorder
	}
}

// NewIssuer wires an Issuer around a signer and a nonce source.
func NewIssuer(signer *Signer, nonces NonceSource, opts ...Option) (*Issuer, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}
	if nonces == nil {
		return nil, fmt.Errorf("nonce source cannot be nil")
	}

	i := &Issuer{
		signer:              signer,
		nonces:              nonces,
		validity:            DefaultValidityWindow,
		defaultIdentityType: big.NewInt(DefaultIdentityType),
		now:                 time.Now,
		logger:              zap.NewNop(),
		metrics:             metrics.NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.validity < time.Second {
		return nil, fmt.Errorf("validity window must be at least one second, got %s", i.validity)
	}
	return i, nil
}

// Signer returns the account attestations are signed with.
func (i *Issuer) Signer() common.Address {
	return i.signer.Address()
}

// Issue produces a signed attestation for subject. A nil identityType selects the default.
// Input is validated before the registry is contacted; a failed nonce lookup is returned
// as KindNonceLookupFailed without retrying.
func (i *Issuer) Issue(ctx context.Context, subject string, identityType *big.Int) (att *SignedAttestation, err error) {
	start := time.Now()
	ctx, end := tracing.TraceOp(ctx, tracing.OpIssue, tracing.AttrSubject.String(subject))
	defer func() {
		end(err)
		outcome := "issued"
		if err != nil {
			outcome = string(KindOf(err))
		}
		i.metrics.RecordIssuance(ctx, outcome, time.Since(start))
	}()

	addr, err := ParseAddress(subject)
	if err != nil {
		return nil, err
	}

	if identityType == nil {
		identityType = new(big.Int).Set(i.defaultIdentityType)
	}
	if _, err := packUint256("identity type", identityType); err != nil {
		return nil, err
	}

	nonce, err := i.lookupNonce(ctx, addr)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		tracing.AttrIdentityType.String(identityType.String()),
		tracing.AttrNonce.String(nonce.String()))

	expiresAt := uint64(i.now().Unix()) + uint64(i.validity/time.Second)

	msg := &Message{
		Subject:      addr,
		IdentityType: identityType,
		ExpiresAt:    new(big.Int).SetUint64(expiresAt),
		Nonce:        nonce,
	}
	digest, err := msg.Digest()
	if err != nil {
		return nil, err
	}

	signature, err := i.sign(ctx, digest)
	if err != nil {
		if KindOf(err) == KindSelfCheckFailed {
			i.logger.Error("attestation failed self-verification, refusing to release",
				zap.String("subject", addr.Hex()),
				zap.Stringer("nonce", nonce),
				zap.Stringer("id_type", identityType),
				zap.Uint64("expires_at", expiresAt),
				zap.Stringer("digest", digest),
				zap.Error(err))
		}
		return nil, err
	}

	i.logger.Info("issued attestation",
		zap.String("subject", addr.Hex()),
		zap.Stringer("nonce", nonce),
		zap.Stringer("id_type", identityType),
		zap.Uint64("expires_at", expiresAt),
		zap.Stringer("digest", digest),
		zap.String("signer", i.signer.Address().Hex()))

	return &SignedAttestation{
		Subject:      addr,
		IdentityType: identityType,
		ExpiresAt:    expiresAt,
		Nonce:        nonce,
		Digest:       digest,
		Signature:    signature,
		Signer:       i.signer.Address(),
	}, nil
}

func (i *Issuer) lookupNonce(ctx context.Context, addr common.Address) (nonce *big.Int, err error) {
	start := time.Now()
	ctx, end := tracing.TraceOp(ctx, tracing.OpNonceLookup, tracing.AttrSubject.String(addr.Hex()))
	defer func() {
		end(err)
		i.metrics.RecordNonceLookup(ctx, time.Since(start), err)
	}()

	nonce, err = i.nonces.Nonce(ctx, addr)
	if err != nil {
		return nil, newError(KindNonceLookupFailed, "failed to read nonce for "+addr.Hex(), err)
	}
	if nonce == nil {
		return nil, newError(KindNonceLookupFailed, "registry returned no nonce for "+addr.Hex(), nil)
	}
	return nonce, nil
}

func (i *Issuer) sign(ctx context.Context, digest common.Hash) (signature []byte, err error) {
	_, end := tracing.TraceOp(ctx, tracing.OpSign, attribute.String("digest", digest.Hex()))
	defer func() { end(err) }()

	return i.signer.Sign(digest)
}
