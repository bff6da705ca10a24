package attestation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	t.Run("NewSigner", func(t *testing.T) {
		signer, err := NewSigner(testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, testAddress, signer.Address().Hex())
	})

	t.Run("NewSignerWithPrefix", func(t *testing.T) {
		signer, err := NewSigner("0x" + testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, testAddress, signer.Address().Hex())
	})

	t.Run("NewSignerFromECDSA", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		signer, err := NewSignerFromECDSA(key)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.Address())
	})

	t.Run("SignReturnsEVMSignature", func(t *testing.T) {
		signer := newTestSigner(t)
		digest := common.HexToHash(refDigest)

		signature, err := signer.Sign(digest)
		require.NoError(t, err)
		require.Len(t, signature, 65, "signature should be 65 bytes [R || S || V]")
		assert.Contains(t, []byte{27, 28}, signature[64], "V should be in EVM form")

		recovered, err := Recover(digest, signature)
		require.NoError(t, err)
		assert.Equal(t, testAddress, recovered.Hex())
	})

	t.Run("DeterministicSignature", func(t *testing.T) {
		signer := newTestSigner(t)
		digest := crypto.Keccak256Hash([]byte("deterministic test payload"))

		sig1, err := signer.Sign(digest)
		require.NoError(t, err)
		sig2, err := signer.Sign(digest)
		require.NoError(t, err)

		assert.Equal(t, sig1, sig2, "signatures should be deterministic")
	})

	t.Run("ConcurrentSigning", func(t *testing.T) {
		signer := newTestSigner(t)
		digest := crypto.Keccak256Hash([]byte("concurrent test payload"))

		var wg sync.WaitGroup
		numGoroutines := 100
		results := make([][]byte, numGoroutines)
		errs := make([]error, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(idx int) {
				defer wg.Done()
				results[idx], errs[idx] = signer.Sign(digest)
			}(i)
		}
		wg.Wait()

		for i := 0; i < numGoroutines; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0], results[i], "all concurrent signatures should be identical")
		}
	})
}

func TestSignerInvalidKeys(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"not hex":   "zz0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		"too short": "ac0974bec39a17e36ba4a6b4d238ff94",
		"zero":      "0000000000000000000000000000000000000000000000000000000000000000",
		"over n":    "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	}

	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			signer, err := NewSigner(key)
			require.Error(t, err)
			assert.Nil(t, signer)
			assert.True(t, errors.Is(err, ErrSigningKeyInvalid), "got %v", err)
		})
	}

	t.Run("nil ECDSA key", func(t *testing.T) {
		signer, err := NewSignerFromECDSA(nil)
		require.Error(t, err)
		assert.Nil(t, signer)
		assert.Contains(t, err.Error(), "private key cannot be nil")
	})

	t.Run("P-256 key rejected", func(t *testing.T) {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		signer, err := NewSignerFromECDSA(key)
		require.Error(t, err)
		assert.Nil(t, signer)
		assert.True(t, errors.Is(err, ErrSigningKeyInvalid))
		assert.Contains(t, err.Error(), "not a secp256k1 key")
	})
}

func TestPersonalMessagePrefix(t *testing.T) {
	// The registry recovers over toEthSignedMessageHash(structHash).
	prefixed := accounts.TextHash(common.HexToHash(refDigest).Bytes())
	assert.Equal(t, refPrefixedDigest, hexutil.Encode(prefixed))

	manual := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), common.HexToHash(refDigest).Bytes())
	assert.Equal(t, prefixed, manual)
}

func TestSignRecoversForRandomKeys(t *testing.T) {
	for i := 0; i < 20; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		signer, err := NewSignerFromECDSA(key)
		require.NoError(t, err)

		var digest common.Hash
		_, err = rand.Read(digest[:])
		require.NoError(t, err)

		signature, err := signer.Sign(digest)
		require.NoError(t, err)

		recovered, err := Recover(digest, signature)
		require.NoError(t, err)
		assert.Equal(t, signer.Address(), recovered)
	}
}

func TestSignSelfCheck(t *testing.T) {
	t.Run("MisalignedHashIsRejected", func(t *testing.T) {
		signer := newTestSigner(t)
		// Hash the prefixed digest a second time so recovery lands on a different account.
		signer.sign = func(hash []byte, key *ecdsa.PrivateKey) ([]byte, error) {
			return crypto.Sign(crypto.Keccak256(hash), key)
		}

		signature, err := signer.Sign(common.HexToHash(refDigest))
		require.Error(t, err)
		assert.Nil(t, signature, "a failed self-check must not release a signature")
		assert.True(t, errors.Is(err, ErrSelfCheckFailed), "got %v", err)
		assert.True(t, errors.Is(err, ErrSignerMismatch))
	})

	t.Run("TruncatedSignatureIsRejected", func(t *testing.T) {
		signer := newTestSigner(t)
		signer.sign = func(hash []byte, key *ecdsa.PrivateKey) ([]byte, error) {
			sig, err := crypto.Sign(hash, key)
			return sig[:64], err
		}

		signature, err := signer.Sign(common.HexToHash(refDigest))
		assert.Nil(t, signature)
		assert.True(t, errors.Is(err, ErrSelfCheckFailed), "got %v", err)
	})

	t.Run("SchemeErrorIsSurfaced", func(t *testing.T) {
		signer := newTestSigner(t)
		boom := errors.New("boom")
		signer.sign = func(hash []byte, key *ecdsa.PrivateKey) ([]byte, error) {
			return nil, boom
		}

		signature, err := signer.Sign(common.HexToHash(refDigest))
		assert.Nil(t, signature)
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, KindSigningKeyInvalid, KindOf(err))
	})
}
