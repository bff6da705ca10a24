package attestation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrSignerMismatch is returned by Verify when the signature recovers to another account.
var ErrSignerMismatch = errors.New("recovered signer does not match")

// Recover undoes the personal-message prefix and returns the account that signed digest.
// V may be in compact {0,1} or EVM {27,28} form.
func Recover(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	normSignature := bytes.Clone(signature)
	recoveryID, err := toCompactRecoveryID(normSignature[64])
	if err != nil {
		return common.Address{}, fmt.Errorf("normalise recovery id: %w", err)
	}
	normSignature[64] = recoveryID

	pub, err := crypto.SigToPub(accounts.TextHash(digest.Bytes()), normSignature)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key from signature: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks that signature over digest recovers to expected.
func Verify(digest common.Hash, signature []byte, expected common.Address) error {
	recovered, err := Recover(digest, signature)
	if err != nil {
		return err
	}
	if recovered != expected {
		return fmt.Errorf("%w: recovered %s, expected %s", ErrSignerMismatch, recovered.Hex(), expected.Hex())
	}
	return nil
}

func toCompactRecoveryID(v byte) (byte, error) {
	switch {
	case v <= 1:
		return v, nil
	case v == 27 || v == 28:
		return v - 27, nil
	default:
		return 0, fmt.Errorf("invalid recovery id %d", v)
	}
}
