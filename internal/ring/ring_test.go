package ring

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateRing builds r RSA key pairs of possibly mixed modulus sizes.
func generateRing(t *testing.T, bits []int) ([]*rsa.PublicKey, []*rsa.PrivateKey) {
	t.Helper()
	pubs := make([]*rsa.PublicKey, len(bits))
	privs := make([]*rsa.PrivateKey, len(bits))
	for i, b := range bits {
		key, err := rsa.GenerateKey(rand.Reader, b)
		require.NoError(t, err)
		key.Precompute()
		pubs[i] = &key.PublicKey
		privs[i] = key
	}
	return pubs, privs
}

func TestSignVerify_RoundTrip_AcrossRingSizesAndSignerIndices(t *testing.T) {
	for _, r := range []int{2, 3, 5, 8} {
		bits := make([]int, r)
		for i := range bits {
			bits[i] = 1024
		}
		pubs, privs := generateRing(t, bits)

		for signer := 0; signer < r; signer++ {
			sig, err := Sign(context.Background(), pubs, signer, privs[signer], []byte("genesis"))
			require.NoError(t, err, "ring size %d signer %d", r, signer)

			ok, err := Verify(context.Background(), pubs, []byte("genesis"), sig)
			require.NoError(t, err)
			assert.True(t, ok, "ring size %d signer %d should verify", r, signer)
		}
	}
}

func TestSignVerify_MixedKeySizes(t *testing.T) {
	pubs, privs := generateRing(t, []int{2048, 3072, 3072})
	message := []byte("genesis")

	for signer := range pubs {
		sig, err := Sign(context.Background(), pubs, signer, privs[signer], message)
		require.NoError(t, err)

		ok, err := Verify(context.Background(), pubs, message, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerify_RejectsTamperedMessage(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024, 1024})
	sig, err := Sign(context.Background(), pubs, 1, privs[1], []byte("original message"))
	require.NoError(t, err)

	ok, err := Verify(context.Background(), pubs, []byte("tampered message"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_RejectsTamperedPivot(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024, 1024})
	message := []byte("genesis")
	sig, err := Sign(context.Background(), pubs, 0, privs[0], message)
	require.NoError(t, err)

	sig.V.Add(sig.V, sig.V)

	ok, err := Verify(context.Background(), pubs, message, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_RejectsTamperedXValue(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024, 1024})
	message := []byte("genesis")
	sig, err := Sign(context.Background(), pubs, 0, privs[0], message)
	require.NoError(t, err)

	sig.X[2].Add(sig.X[2], sig.X[2])

	ok, err := Verify(context.Background(), pubs, message, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_RejectsTamperedIV(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024, 1024})
	message := []byte("genesis")
	sig, err := Sign(context.Background(), pubs, 0, privs[0], message)
	require.NoError(t, err)

	sig.IV[0] ^= 0xff

	ok, err := Verify(context.Background(), pubs, message, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_RejectsWrongRing(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024, 1024})
	otherPubs, _ := generateRing(t, []int{1024, 1024, 1024})
	message := []byte("genesis")

	sig, err := Sign(context.Background(), pubs, 0, privs[0], message)
	require.NoError(t, err)

	ok, err := Verify(context.Background(), otherPubs, message, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSign_RejectsSignerKeyMismatch(t *testing.T) {
	pubs, _ := generateRing(t, []int{1024, 1024})
	_, otherPrivs := generateRing(t, []int{1024})

	_, err := Sign(context.Background(), pubs, 0, otherPrivs[0], []byte("genesis"))
	assert.Error(t, err)
}

func TestSign_RejectsIndexOutOfRange(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024, 1024})

	_, err := Sign(context.Background(), pubs, 2, privs[0], []byte("genesis"))
	assert.Error(t, err)

	_, err = Sign(context.Background(), pubs, -1, privs[0], []byte("genesis"))
	assert.Error(t, err)
}

func TestSign_RejectsTooSmallRing(t *testing.T) {
	pubs, privs := generateRing(t, []int{1024})
	_, err := Sign(context.Background(), pubs, 0, privs[0], []byte("genesis"))
	assert.Error(t, err)
}

func TestDomainBits_AlignsToBlockSize(t *testing.T) {
	pubs, _ := generateRing(t, []int{1024, 2048})
	b := DomainBits(pubs)
	assert.Equal(t, 0, b%128, "domain width must be a whole number of AES blocks")
	assert.Greater(t, b, 2048, "domain width must exceed the largest modulus bit length")
}
