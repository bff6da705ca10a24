package attestation

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the long-lived secp256k1 identity that vouches for attestations.
// It is immutable after construction and may be shared by any number of goroutines.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	// sign is crypto.Sign outside of tests.
	sign func(hash []byte, key *ecdsa.PrivateKey) ([]byte, error)
}

// NewSigner parses a hex-encoded secp256k1 private key, with or without the 0x prefix.
func NewSigner(hexKey string) (*Signer, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	if hexKey == "" {
		return nil, newError(KindSigningKeyInvalid, "private key cannot be empty", nil)
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, newError(KindSigningKeyInvalid, "failed to decode secp256k1 private key", err)
	}
	return NewSignerFromECDSA(key)
}

// NewSignerFromECDSA wraps an existing key. The key must lie on secp256k1.
func NewSignerFromECDSA(key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil || key.D == nil {
		return nil, newError(KindSigningKeyInvalid, "private key cannot be nil", nil)
	}
	if key.Curve == nil || key.Curve.Params().P.Cmp(crypto.S256().Params().P) != 0 {
		return nil, newError(KindSigningKeyInvalid, "private key is not a secp256k1 key", nil)
	}

	// Round-trip through the raw scalar so out-of-range keys are rejected.
	normalised, err := crypto.ToECDSA(crypto.FromECDSA(key))
	if err != nil {
		return nil, newError(KindSigningKeyInvalid, "failed to convert private key to ECDSA", err)
	}

	address := crypto.PubkeyToAddress(normalised.PublicKey)
	if address == (common.Address{}) {
		return nil, newError(KindSigningKeyInvalid, "private key derives the zero address", nil)
	}

	return &Signer{
		key:     normalised,
		address: address,
		sign:    crypto.Sign,
	}, nil
}

// Address returns the signer's account, computed once at construction.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign produces a 65-byte [R || S || V] signature over the personal-message hash of
// digest, with V in {27,28} as ecrecover expects. Before returning, the signer is
// recovered from the signature; a mismatch yields KindSelfCheckFailed and no signature.
func (s *Signer) Sign(digest common.Hash) ([]byte, error) {
	hash := accounts.TextHash(digest.Bytes())

	signature, err := s.sign(hash, s.key)
	if err != nil {
		return nil, newError(KindSigningKeyInvalid, "failed to sign digest", err)
	}
	if len(signature) != crypto.SignatureLength {
		return nil, newError(KindSelfCheckFailed,
			fmt.Sprintf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature)), nil)
	}

	// crypto.Sign returns V as {0,1}; strip any offset and add 27 for the EVM form.
	v := signature[64]
	if v >= 27 {
		v -= 27
	}
	signature[64] = (v & 1) + 27

	if err := Verify(digest, signature, s.address); err != nil {
		return nil, newError(KindSelfCheckFailed, "signature does not recover to signer "+s.address.Hex(), err)
	}

	return signature, nil
}
