package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"math/big"

	"github.com/udisondev/ringsig/internal/constants"
)

// BlockPRP is a keyed pseudorandom permutation over {0,1}^L, realized
// with AES-256 in CBC mode and no padding. It backs the combining
// function C_{k,v}: every ring member's glue value passes through the
// SAME (key, iv) pair, so that E_k behaves as a genuine permutation —
// invertible, and consistent regardless of which member's turn it is
// in the ring equation.
//
// A BlockPRP instance is call-scoped: one is built per Sign/Verify
// invocation from a key derived from the message hash and a fresh
// random IV that travels with the signature, and is never reused
// across signing/verification operations.
type BlockPRP struct {
	block cipher.Block
	iv    []byte
}

// NewBlockPRP builds a BlockPRP from a 32-byte AES-256 key and a
// 16-byte initialization vector.
func NewBlockPRP(key, iv []byte) (*BlockPRP, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("block prp: %w", err)
	}
	if len(iv) != constants.PRPBlockSize {
		return nil, fmt.Errorf("block prp: iv must be %d bytes, got %d", constants.PRPBlockSize, len(iv))
	}
	ivCopy := make([]byte, aes.BlockSize)
	copy(ivCopy, iv)
	return &BlockPRP{block: block, iv: ivCopy}, nil
}

// Eval applies the forward permutation to x, encoding it into a
// buffer byteLength(x) bytes wide before the AES-CBC pass and decoding
// the result back to an integer. The outer IV is always this
// instance's fixed iv, so two calls to Eval with the same x return the
// same result.
func (p *BlockPRP) Eval(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, fmt.Errorf("block prp eval: x must be non-negative")
	}
	buf := make([]byte, byteLength(x))
	x.FillBytes(buf)
	out := make([]byte, len(buf))
	cipher.NewCBCEncrypter(p.block, p.iv).CryptBlocks(out, buf)
	return new(big.Int).SetBytes(out), nil
}

// Invert applies the inverse permutation to y.
func (p *BlockPRP) Invert(y *big.Int) (*big.Int, error) {
	if y.Sign() < 0 {
		return nil, fmt.Errorf("block prp invert: y must be non-negative")
	}
	buf := make([]byte, byteLength(y))
	y.FillBytes(buf)
	out := make([]byte, len(buf))
	cipher.NewCBCDecrypter(p.block, p.iv).CryptBlocks(out, buf)
	return new(big.Int).SetBytes(out), nil
}

// byteLength computes the per-call encoding width for x: the bit
// length of x, rounded down to the enclosing byte, minus one, then
// rounded up to the next whole AES block. Values below 2^7 (x == 0
// included) are special-cased to a single block, since the general
// formula would otherwise degenerate to a zero-length (and so
// un-encryptable) buffer for them.
func byteLength(x *big.Int) int {
	if x.BitLen() < 8 {
		return aes.BlockSize
	}
	l := x.BitLen()/8 - 1
	l -= floorMod(l, aes.BlockSize)
	l += aes.BlockSize
	return l
}

// floorMod returns n mod m with the sign of m (Euclidean modulus),
// matching Python's % operator for a positive modulus — unlike Go's
// built-in %, which takes the sign of n and so returns a negative
// result for negative n.
func floorMod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
