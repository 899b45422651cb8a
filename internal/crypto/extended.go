package crypto

import (
	"crypto/rsa"
	"fmt"
	"math/big"
)

// ExtendedPermutation is g_i: the domain extension of a single ring
// member's RSA trapdoor permutation from Z_n_i to the common domain
// {0,1}^b shared by every member of the ring. Within the region where
// (q+1)*n_i <= 2^b, g_i applies the member's RSA permutation to the
// remainder of m mod n_i and leaves the quotient untouched; outside
// that region g_i is the identity. This is what makes C_{k,v} well
// defined across members whose moduli differ in size.
type ExtendedPermutation struct {
	pub        *rsa.PublicKey
	priv       *rsa.PrivateKey // nil unless this is the signer's own member
	domainBits int
	threshold  *big.Int // 2^domainBits, precomputed once
}

// NewExtendedPermutation builds g_i for one ring member. priv may be
// nil: only the signer's own member needs the inverse direction.
func NewExtendedPermutation(pub *rsa.PublicKey, priv *rsa.PrivateKey, domainBits int) *ExtendedPermutation {
	return &ExtendedPermutation{
		pub:        pub,
		priv:       priv,
		domainBits: domainBits,
		threshold:  new(big.Int).Lsh(big.NewInt(1), uint(domainBits)),
	}
}

// Forward computes g_i(m) using the member's public key. Any ring
// member's permutation can be evaluated forward by anyone.
func (g *ExtendedPermutation) Forward(m *big.Int) (*big.Int, error) {
	q, r := g.split(m)
	if !g.inRange(q) {
		return new(big.Int).Set(m), nil
	}
	enc, err := RSAEncryptNoPadding(g.pub, r)
	if err != nil {
		return nil, fmt.Errorf("extended permutation forward: %w", err)
	}
	return g.combine(q, enc), nil
}

// Inverse computes g_i^-1(m). Only available for the ring member
// whose private key this ExtendedPermutation was built with.
func (g *ExtendedPermutation) Inverse(m *big.Int) (*big.Int, error) {
	if g.priv == nil {
		return nil, fmt.Errorf("extended permutation inverse: no private key for this ring member")
	}
	q, r := g.split(m)
	if !g.inRange(q) {
		return new(big.Int).Set(m), nil
	}
	dec, err := RSADecryptNoPadding(g.priv, r)
	if err != nil {
		return nil, fmt.Errorf("extended permutation inverse: %w", err)
	}
	return g.combine(q, dec), nil
}

func (g *ExtendedPermutation) split(m *big.Int) (q, r *big.Int) {
	q, r = new(big.Int), new(big.Int)
	q.DivMod(m, g.pub.N, r)
	return q, r
}

// inRange reports whether (q+1)*n <= 2^b, the region in which g_i
// acts as the member's RSA permutation rather than the identity.
func (g *ExtendedPermutation) inRange(q *big.Int) bool {
	upper := new(big.Int).Add(q, big.NewInt(1))
	upper.Mul(upper, g.pub.N)
	return upper.Cmp(g.threshold) <= 0
}

func (g *ExtendedPermutation) combine(q, inner *big.Int) *big.Int {
	out := new(big.Int).Mul(q, g.pub.N)
	out.Add(out, inner)
	return out
}
