package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSANoPadding_EncryptDecryptRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	key.Precompute()

	m := new(big.Int).SetInt64(123456789)
	m.Mod(m, key.N)

	c, err := RSAEncryptNoPadding(&key.PublicKey, m)
	require.NoError(t, err)

	decoded, err := RSADecryptNoPadding(key, c)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestRSANoPadding_CRTMatchesFallback(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	m := new(big.Int).SetInt64(987654321)
	m.Mod(m, key.N)
	c, err := RSAEncryptNoPadding(&key.PublicKey, m)
	require.NoError(t, err)

	key.Precompute()
	viaCRT, err := RSADecryptNoPadding(key, c)
	require.NoError(t, err)

	noCRT := *key
	noCRT.Precomputed = rsa.PrecomputedValues{}
	viaFallback, err := RSADecryptNoPadding(&noCRT, c)
	require.NoError(t, err)

	assert.Equal(t, viaCRT, viaFallback)
}

func TestRSANoPadding_RejectsOutOfRange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	key.Precompute()

	_, err = RSAEncryptNoPadding(&key.PublicKey, key.N)
	assert.Error(t, err)

	_, err = RSADecryptNoPadding(key, key.N)
	assert.Error(t, err)

	_, err = RSADecryptNoPadding(key, big.NewInt(-1))
	assert.Error(t, err)
}
