package attestation

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// WordLength is the width of every uint256 field in the packed message.
	WordLength = 32

	// PackedLength is the size of a packed Message: one address and three uint256 words.
	PackedLength = common.AddressLength + 3*WordLength
)

// Message is the tuple the registry rebuilds with abi.encodePacked before ecrecover.
// Packing is tight: no length prefixes and no padding between fields.
//
// Layout:
//
//	20 bytes  subject address
//	32 bytes  identity type (uint256, big-endian)
//	32 bytes  expiry in unix seconds (uint256, big-endian)
//	32 bytes  nonce (uint256, big-endian)
type Message struct {
	Subject      common.Address
	IdentityType *big.Int
	ExpiresAt    *big.Int
	Nonce        *big.Int
}

// NewMessage validates the subject and builds a Message. Integer range is checked by Pack.
func NewMessage(subject string, identityType, expiresAt, nonce *big.Int) (*Message, error) {
	addr, err := ParseAddress(subject)
	if err != nil {
		return nil, err
	}
	return &Message{
		Subject:      addr,
		IdentityType: identityType,
		ExpiresAt:    expiresAt,
		Nonce:        nonce,
	}, nil
}

// Pack returns the packed encoding of the message.
func (m *Message) Pack() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(PackedLength)
	buf.Write(m.Subject.Bytes())

	fields := []struct {
		name  string
		value *big.Int
	}{
		{"identity type", m.IdentityType},
		{"expiry", m.ExpiresAt},
		{"nonce", m.Nonce},
	}
	for _, f := range fields {
		word, err := packUint256(f.name, f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(word)
	}

	return buf.Bytes(), nil
}

// Digest computes keccak256(Pack()), the value the registry calls the struct hash.
func (m *Message) Digest() (common.Hash, error) {
	packed, err := m.Pack()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}

// packUint256 encodes v as a zero-extended 32-byte big-endian word.
func packUint256(field string, v *big.Int) ([]byte, error) {
	switch {
	case v == nil:
		return nil, newError(KindEncodingOverflow, field+" is missing", nil)
	case v.Sign() < 0:
		return nil, newError(KindEncodingOverflow, fmt.Sprintf("%s %s is negative", field, v), nil)
	case v.BitLen() > WordLength*8:
		return nil, newError(KindEncodingOverflow, fmt.Sprintf("%s %s exceeds uint256", field, v), nil)
	}
	return common.LeftPadBytes(v.Bytes(), WordLength), nil
}
