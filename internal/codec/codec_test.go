package codec

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ringsig/internal/ring"
)

func buildSignature(t *testing.T, n int, signer int) ([]*rsa.PublicKey, *ring.Signature) {
	t.Helper()
	pubs := make([]*rsa.PublicKey, n)
	privs := make([]*rsa.PrivateKey, n)
	for i := 0; i < n; i++ {
		key, err := rsa.GenerateKey(rand.Reader, 1024)
		require.NoError(t, err)
		key.Precompute()
		pubs[i] = &key.PublicKey
		privs[i] = key
	}
	sig, err := ring.Sign(context.Background(), pubs, signer, privs[signer], []byte("genesis"))
	require.NoError(t, err)
	return pubs, sig
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	pubs, sig := buildSignature(t, 4, 2)

	wire, err := Encode(pubs, sig)
	require.NoError(t, err)

	decodedKeys, decodedSig, err := Decode(wire)
	require.NoError(t, err)

	require.Len(t, decodedKeys, len(pubs))
	for i := range pubs {
		assert.Equal(t, pubs[i].N, decodedKeys[i].N)
		assert.Equal(t, pubs[i].E, decodedKeys[i].E)
	}

	assert.Equal(t, sig.V, decodedSig.V)
	assert.Equal(t, sig.IV, decodedSig.IV)
	require.Len(t, decodedSig.X, len(sig.X))
	for i := range sig.X {
		assert.Equal(t, sig.X[i], decodedSig.X[i])
	}
}

func TestDecode_RejectsMissingTrailer(t *testing.T) {
	pubs, sig := buildSignature(t, 2, 0)
	wire, err := Encode(pubs, sig)
	require.NoError(t, err)

	// Keep only the PEM blocks, dropping the trailer line entirely.
	lastPEMEnd := 0
	for i := 0; i+len("-----END PUBLIC KEY-----") <= len(wire); i++ {
		if string(wire[i:i+len("-----END PUBLIC KEY-----")]) == "-----END PUBLIC KEY-----" {
			lastPEMEnd = i + len("-----END PUBLIC KEY-----") + 1
		}
	}
	require.Greater(t, lastPEMEnd, 0)

	_, _, decErr := Decode(wire[:lastPEMEnd])
	assert.Error(t, decErr)
}

func TestDecode_RejectsWrongFieldCount(t *testing.T) {
	pubs, sig := buildSignature(t, 3, 0)
	wire, err := Encode(pubs, sig)
	require.NoError(t, err)

	// Drop the last field (the 22-character base64 IV) together with its
	// trailing "==" and the newline, so the trailer is one field short.
	truncated := wire[:len(wire)-25]

	_, _, err = Decode(truncated)
	assert.Error(t, err)
}

func TestEncode_RejectsRingSizeMismatch(t *testing.T) {
	pubs, sig := buildSignature(t, 2, 0)
	wire, err := Encode(pubs[:1], sig)
	assert.Error(t, err)
	assert.Nil(t, wire)
}
