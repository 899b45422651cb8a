package crypto

import (
	"crypto/rsa"
	"fmt"
	"math/big"
)

// RSADecryptNoPadding applies the raw RSA trapdoor permutation inverse,
// ciphertext^d mod n, with no padding scheme. This is the signer-side
// half of the extended permutation g_i: only the holder of the private
// key can invert g_i in the region where it acts as modular
// exponentiation.
//
// Uses CRT (Garner's algorithm) for roughly a 4x speedup over the
// naive c^d mod n exponentiation when the private key carries
// precomputed CRT values:
//
//	m1 = c^dP mod p
//	m2 = c^dQ mod q
//	h  = (m1 - m2) * qInv mod p
//	m  = m2 + h*q
//
// Falls back to the direct exponentiation when CRT parameters are
// unavailable. Both paths operate on values already reduced to the
// modulus's own size; callers (ExtendedPermutation) are responsible
// for the encoding-width bookkeeping around the g_i pass-through
// region.
func RSADecryptNoPadding(privateKey *rsa.PrivateKey, ciphertext *big.Int) (*big.Int, error) {
	if ciphertext.Sign() < 0 || ciphertext.Cmp(privateKey.N) >= 0 {
		return nil, fmt.Errorf("rsa decrypt: ciphertext out of range for modulus")
	}

	if privateKey.Precomputed.Dp != nil &&
		privateKey.Precomputed.Dq != nil &&
		privateKey.Precomputed.Qinv != nil &&
		len(privateKey.Primes) >= 2 {

		p := privateKey.Primes[0]
		q := privateKey.Primes[1]

		m1 := new(big.Int).Exp(ciphertext, privateKey.Precomputed.Dp, p)
		m2 := new(big.Int).Exp(ciphertext, privateKey.Precomputed.Dq, q)

		h := new(big.Int).Sub(m1, m2)
		h.Mul(h, privateKey.Precomputed.Qinv)
		h.Mod(h, p)

		m := new(big.Int).Mul(h, q)
		m.Add(m, m2)
		return m, nil
	}

	return new(big.Int).Exp(ciphertext, privateKey.D, privateKey.N), nil
}

// RSAEncryptNoPadding applies the raw RSA trapdoor permutation,
// plaintext^e mod n, with no padding scheme. This is the public-key
// half of g_i, usable by anyone (signer or verifier) for every ring
// member other than the signer's own slot.
func RSAEncryptNoPadding(publicKey *rsa.PublicKey, plaintext *big.Int) (*big.Int, error) {
	if plaintext.Sign() < 0 || plaintext.Cmp(publicKey.N) >= 0 {
		return nil, fmt.Errorf("rsa encrypt: plaintext out of range for modulus")
	}
	e := big.NewInt(int64(publicKey.E))
	return new(big.Int).Exp(plaintext, e, publicKey.N), nil
}
