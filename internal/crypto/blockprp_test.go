package crypto

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockPRP_EvalInvertRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	prp, err := NewBlockPRP(key, iv)
	require.NoError(t, err)

	data, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 256))
	require.NoError(t, err)

	encoded, err := prp.Eval(data)
	require.NoError(t, err)
	assert.NotEqual(t, data, encoded)

	decoded, err := prp.Invert(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, data.Cmp(decoded))
}

func TestBlockPRP_SameInputSameOutput(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	prp, err := NewBlockPRP(key, iv)
	require.NoError(t, err)

	data, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	require.NoError(t, err)

	first, err := prp.Eval(data)
	require.NoError(t, err)
	second, err := prp.Eval(data)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Cmp(second), "a fixed (key, iv) BlockPRP must be deterministic across calls")
}

func TestBlockPRP_RejectsBadIVLength(t *testing.T) {
	key := make([]byte, 32)
	_, err := NewBlockPRP(key, make([]byte, 8))
	assert.Error(t, err)
}

func TestBlockPRP_RejectsNegativeInput(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	prp, err := NewBlockPRP(key, iv)
	require.NoError(t, err)

	_, err = prp.Eval(big.NewInt(-1))
	assert.Error(t, err)

	_, err = prp.Invert(big.NewInt(-1))
	assert.Error(t, err)
}

func TestByteLength_ZeroIsOneBlock(t *testing.T) {
	assert.Equal(t, 16, byteLength(big.NewInt(0)))
}

func TestByteLength_GrowsByWholeBlocks(t *testing.T) {
	// An 11-bit and a 201-bit value each get a whole number of 16-byte
	// blocks, wide enough to hold them.
	small := new(big.Int).Lsh(big.NewInt(1), 10) // bit length 11
	assert.Equal(t, 16, byteLength(small))

	large := new(big.Int).Lsh(big.NewInt(1), 200) // bit length 201
	l := byteLength(large)
	assert.Equal(t, 0, l%16)
	assert.GreaterOrEqual(t, l*8, large.BitLen())
}

func TestFloorMod_MatchesEuclideanSign(t *testing.T) {
	assert.Equal(t, 0, floorMod(16, 16))
	assert.Equal(t, 1, floorMod(17, 16))
	assert.Equal(t, 15, floorMod(-1, 16))
	assert.Equal(t, 0, floorMod(-16, 16))
}
