package attestation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Hardhat's first development account.
const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// Reference attestation shared with the registry's hash-compatibility scripts.
const (
	refSubject   = "0x18E167204a25B13EFc0c4a6D312eA96de846F729"
	refExpiresAt = 1735732800
	refPacked    = "0x18e167204a25b13efc0c4a6d312ea96de846f729" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000067752e40" +
		"0000000000000000000000000000000000000000000000000000000000000000"
	refDigest         = "0xb5ba83cb09e231a6302a340d6da803533aa0b188be827f44c7023787e49ae7f7"
	refPrefixedDigest = "0x8c6c5da69fdc065f84eeecf756d052c86561cf927f8d691b066570d741d152a0"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)
	return signer
}
