package app

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lenda-labs/uid-signer/internal/attestation"
)

type verifyFlags struct {
	address   string
	idType    string
	expiresAt uint64
	nonce     string
	signature string
	signer    string
}

func VerifyCmd() *cobra.Command {
	var f verifyFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recover the signer of a previously issued attestation",
		Long: `Rebuild the packed message from its fields, recover the account that signed it and,
when --signer is given, fail unless it matches. No configuration or network access is needed.`,
		Example: `  uid-signer verify --address 0x18E167204a25B13EFc0c4a6D312eA96de846F729 \
    --id-type 1 --expires-at 1735732800 --nonce 0 --signature 0x...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.address, "address", "", "subject account address")
	cmd.Flags().StringVar(&f.idType, "id-type", "1", "identity type")
	cmd.Flags().Uint64Var(&f.expiresAt, "expires-at", 0, "expiry in unix seconds")
	cmd.Flags().StringVar(&f.nonce, "nonce", "", "registry nonce the attestation was issued against")
	cmd.Flags().StringVar(&f.signature, "signature", "", "0x-prefixed 65-byte signature")
	cmd.Flags().StringVar(&f.signer, "signer", "", "expected signer address")
	for _, name := range []string{"address", "expires-at", "nonce", "signature"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runVerify(cmd *cobra.Command, f verifyFlags) error {
	id, err := parseBigInt("id-type", f.idType)
	if err != nil {
		return err
	}
	nonce, err := parseBigInt("nonce", f.nonce)
	if err != nil {
		return err
	}

	msg, err := attestation.NewMessage(f.address, id, new(big.Int).SetUint64(f.expiresAt), nonce)
	if err != nil {
		return err
	}
	digest, err := msg.Digest()
	if err != nil {
		return err
	}

	sig, err := hexutil.Decode(f.signature)
	if err != nil {
		return errors.Wrap(err, "decode --signature")
	}

	recovered, err := attestation.Recover(digest, sig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "digest:  %s\n", digest.Hex())
	fmt.Fprintf(out, "signer:  %s\n", recovered.Hex())

	if f.signer == "" {
		return nil
	}
	expected, err := attestation.ParseAddress(f.signer)
	if err != nil {
		return errors.Wrap(err, "--signer")
	}
	if err := attestation.Verify(digest, sig, expected); err != nil {
		return err
	}
	fmt.Fprintf(out, "matches: %s\n", expected.Hex())
	return nil
}
