package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lenda-labs/uid-signer/internal/attestation"
)

// errorResponse carries the error kind for programmatic callers. Error duplicates
// Message for the existing dApp, which reads the "error" field.
type errorResponse struct {
	Kind    attestation.Kind `json:"kind"`
	Message string           `json:"message"`
	Error   string           `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates an issuance error to a status code and JSON envelope.
// Registry transport errors pass through verbatim; other service-side failures
// stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	kind := attestation.KindOf(err)
	status := statusFor(kind)

	message := "internal error"
	switch kind {
	case attestation.KindInvalidRequest, attestation.KindInvalidAddress, attestation.KindEncodingOverflow:
		var e *attestation.Error
		if errors.As(err, &e) && e.Message != "" {
			message = e.Message
		} else {
			message = err.Error()
		}
	case attestation.KindNonceLookupFailed:
		message = nonceLookupMessage(err)
	}

	writeJSON(w, status, errorResponse{
		Kind:    kind,
		Message: message,
		Error:   message,
	})
}

func nonceLookupMessage(err error) string {
	var e *attestation.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func statusFor(kind attestation.Kind) int {
	switch kind {
	case attestation.KindInvalidRequest, attestation.KindInvalidAddress, attestation.KindEncodingOverflow:
		return http.StatusBadRequest
	case attestation.KindNonceLookupFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
