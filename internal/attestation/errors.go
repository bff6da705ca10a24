package attestation

import (
	"errors"
	"fmt"
)

// Kind classifies issuance failures so callers can tell bad input from a broken service.
type Kind string

const (
	KindInvalidRequest    Kind = "invalid_request"
	KindInvalidAddress    Kind = "invalid_address"
	KindEncodingOverflow  Kind = "encoding_overflow"
	KindSigningKeyInvalid Kind = "signing_key_invalid"
	KindNonceLookupFailed Kind = "nonce_lookup_failed"
	KindSelfCheckFailed   Kind = "signature_self_check_failed"

	// KindInternal is reported for errors that carry no Kind.
	KindInternal Kind = "internal"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrInvalidAddress    = &Error{Kind: KindInvalidAddress}
	ErrEncodingOverflow  = &Error{Kind: KindEncodingOverflow}
	ErrSigningKeyInvalid = &Error{Kind: KindSigningKeyInvalid}
	ErrNonceLookupFailed = &Error{Kind: KindNonceLookupFailed}
	ErrSelfCheckFailed   = &Error{Kind: KindSelfCheckFailed}
)

// Error is the structured failure returned by every operation in this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewError builds an *Error; the HTTP layer uses it for malformed request bodies.
func NewError(kind Kind, message string, err error) *Error {
	return newError(kind, message, err)
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind from err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsCallerError reports whether err was caused by the request rather than the service.
func IsCallerError(err error) bool {
	switch KindOf(err) {
	case KindInvalidRequest, KindInvalidAddress, KindEncodingOverflow:
		return true
	default:
		return false
	}
}
