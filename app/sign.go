package app

import (
	"encoding/json"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lenda-labs/uid-signer/internal/attestation"
	"github.com/lenda-labs/uid-signer/internal/config"
	"github.com/lenda-labs/uid-signer/internal/registry"
)

// attestationOutput is the JSON printed by the sign command.
type attestationOutput struct {
	Subject      string   `json:"subject"`
	IdentityType *big.Int `json:"id"`
	ExpiresAt    uint64   `json:"expiresAt"`
	Nonce        *big.Int `json:"nonce"`
	Digest       string   `json:"digest"`
	Signature    string   `json:"signature"`
	Signer       string   `json:"signer"`
}

func SignCmd() *cobra.Command {
	var (
		address string
		idType  string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Issue a single attestation and print it as JSON",
		Long: `Issue a single attestation using the same configuration as serve.
The registry nonce is read from RPC_URL; nothing is submitted on-chain.`,
		Example: `  PRIVATE_KEY=... uid-signer sign --address 0x18E167204a25B13EFc0c4a6D312eA96de846F729 --id-type 1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			// Logs go to stderr so stdout stays parseable.
			logger, err := newLogger(cfg.Level())
			if err != nil {
				return errors.Wrap(err, "build logger")
			}
			defer func() { _ = logger.Sync() }()

			id, err := parseBigInt("id-type", idType)
			if err != nil {
				return err
			}

			signer, err := attestation.NewSigner(cfg.PrivateKey.Value())
			if err != nil {
				return errors.Wrap(err, "load signing key")
			}

			nonces, err := registry.Dial(cmd.Context(), cfg.RPCURL, cfg.Registry(), registry.DialOptions{
				Timeout:    cfg.RPCDialTimeout,
				MaxRetries: cfg.RPCDialAttempts - 1,
				Logger:     logger.Named("registry"),
			})
			if err != nil {
				return err
			}
			defer nonces.Close()

			issuer, err := attestation.NewIssuer(signer, nonces,
				attestation.WithValidityWindow(cfg.ValidityWindow),
				attestation.WithDefaultIdentityType(cfg.DefaultIdentityType),
				attestation.WithLogger(logger.Named("issuer")),
			)
			if err != nil {
				return errors.Wrap(err, "build issuer")
			}

			att, err := issuer.Issue(cmd.Context(), address, id)
			if err != nil {
				logger.Debug("issue failed", zap.Error(err))
				return err
			}
			return printAttestation(cmd.OutOrStdout(), att)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "subject account address")
	cmd.Flags().StringVar(&idType, "id-type", "", "identity type (default DEFAULT_ID_TYPE)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func printAttestation(w io.Writer, att *attestation.SignedAttestation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(attestationOutput{
		Subject:      att.Subject.Hex(),
		IdentityType: att.IdentityType,
		ExpiresAt:    att.ExpiresAt,
		Nonce:        att.Nonce,
		Digest:       att.Digest.Hex(),
		Signature:    att.SignatureHex(),
		Signer:       att.Signer.Hex(),
	})
}

// parseBigInt parses a base-10 (or 0x-prefixed hex) integer flag. An empty value yields nil.
func parseBigInt(flag, value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	digits, base := value, 10
	if hex, found := strings.CutPrefix(strings.ToLower(value), "0x"); found {
		digits, base = hex, 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, attestation.NewError(attestation.KindInvalidRequest, "--"+flag+" must be an integer, got "+value, nil)
	}
	return n, nil
}
