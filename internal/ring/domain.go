// Package ring implements the RSA ring signature scheme of Rivest,
// Shamir and Tauman (Asiacrypt 2001): sign and verify algorithms built
// on top of internal/crypto's extended trapdoor permutations and
// keyed block permutation.
package ring

import (
	"crypto/rsa"
	"math/big"

	"github.com/udisondev/ringsig/internal/constants"
)

// DomainBits computes the common extended domain width b shared by
// every member of the ring: the bit length of the largest modulus
// minus one, plus a fixed security margin, rounded up to a whole
// number of AES blocks.
func DomainBits(keys []*rsa.PublicKey) int {
	maxBits := 0
	one := big.NewInt(1)
	for _, k := range keys {
		nMinus1 := new(big.Int).Sub(k.N, one)
		if bl := nMinus1.BitLen(); bl > maxBits {
			maxBits = bl
		}
	}
	b := maxBits + constants.DomainWidthSecurityMargin
	if rem := b % constants.DomainWidthAlign; rem != 0 {
		b += constants.DomainWidthAlign - rem
	}
	return b
}
