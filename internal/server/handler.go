package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lenda-labs/uid-signer/internal/attestation"
)

// maxBodyBytes caps /sign request bodies.
const maxBodyBytes = 64 << 10

// Issuer is the part of *attestation.Issuer the HTTP layer depends on.
type Issuer interface {
	Issue(ctx context.Context, subject string, identityType *big.Int) (*attestation.SignedAttestation, error)
	Signer() common.Address
}

// Info is reported by the health endpoint.
type Info struct {
	Contract common.Address
	RPC      string
	Version  string
}

// Handler serves the health and signing endpoints.
type Handler struct {
	issuer Issuer
	info   Info
	logger *zap.Logger
}

func NewHandler(issuer Issuer, info Info, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		issuer: issuer,
		info:   info,
		logger: logger,
	}
}

// Register registers the service routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleHealth)
	r.Post("/sign", h.handleSign)
}

type healthResponse struct {
	Status   string `json:"status"`
	Signer   string `json:"signer"`
	Contract string `json:"contract"`
	RPC      string `json:"rpc"`
	Version  string `json:"version,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "running",
		Signer:   h.issuer.Signer().Hex(),
		Contract: h.info.Contract.Hex(),
		RPC:      h.info.RPC,
		Version:  h.info.Version,
	})
}

// signRequest accepts both the snake_case fields the dApp sends and camelCase aliases.
type signRequest struct {
	UserAddress    string      `json:"user_address"`
	SubjectAddress string      `json:"subjectAddress"`
	IDType         json.Number `json:"id_type"`
	IdentityType   json.Number `json:"identityType"`
}

func (req *signRequest) subject() string {
	if req.UserAddress != "" {
		return req.UserAddress
	}
	return req.SubjectAddress
}

// identityType returns nil when the field is absent so the issuer applies its default.
func (req *signRequest) identityType() (*big.Int, error) {
	raw := req.IDType
	if raw == "" {
		raw = req.IdentityType
	}
	if raw == "" {
		return nil, nil
	}

	id, ok := new(big.Int).SetString(raw.String(), 10)
	if !ok {
		return nil, attestation.NewError(attestation.KindInvalidRequest, "id_type must be an integer, got "+raw.String(), nil)
	}
	return id, nil
}

type signResponse struct {
	Signature string   `json:"signature"`
	ExpiresAt uint64   `json:"expiresAt"`
	ID        *big.Int `json:"id"`
	Nonce     *big.Int `json:"nonce"`
	Signer    string   `json:"signer"`
	Subject   string   `json:"subject"`
	Digest    string   `json:"digest"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestIDFrom(ctx)

	var req signRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		h.logger.Warn("invalid sign request",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeError(w, attestation.NewError(attestation.KindInvalidRequest, message, err))
		return
	}
	if dec.More() {
		h.logger.Warn("invalid sign request",
			zap.String("request_id", requestID),
			zap.String("reason", "trailing data after request object"))
		writeError(w, attestation.NewError(attestation.KindInvalidRequest, "invalid request body", nil))
		return
	}

	id, err := req.identityType()
	if err != nil {
		writeError(w, err)
		return
	}

	att, err := h.issuer.Issue(ctx, req.subject(), id)
	if err != nil {
		if attestation.IsCallerError(err) {
			h.logger.Info("rejected sign request",
				zap.String("request_id", requestID),
				zap.String("subject", req.subject()),
				zap.Error(err))
		} else {
			h.logger.Error("failed to issue attestation",
				zap.String("request_id", requestID),
				zap.String("subject", req.subject()),
				zap.Error(err))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signResponse{
		Signature: att.SignatureHex(),
		ExpiresAt: att.ExpiresAt,
		ID:        att.IdentityType,
		Nonce:     att.Nonce,
		Signer:    att.Signer.Hex(),
		Subject:   att.Subject.Hex(),
		Digest:    att.Digest.Hex(),
	})
}
