package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/udisondev/ringsig/internal/constants"
)

// RandomBigInt returns a uniformly random non-negative integer strictly
// less than 2^bits, read from the system CSPRNG.
func RandomBigInt(bits int) (*big.Int, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("random big int: bits must be positive, got %d", bits)
	}
	byteLen := (bits + 7) / 8
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("random big int: reading entropy: %w", err)
	}
	v := new(big.Int).SetBytes(buf)
	excess := uint(byteLen*8 - bits)
	if excess > 0 {
		v.Rsh(v, excess)
	}
	return v, nil
}

// RandomBlockKey draws a fresh random AES-256 key and IV for BlockPRP.
func RandomBlockKey() (key, iv []byte, err error) {
	key = make([]byte, constants.PRPKeySize)
	if _, err = rand.Read(key); err != nil {
		return nil, nil, fmt.Errorf("random block key: %w", err)
	}
	iv = make([]byte, constants.PRPBlockSize)
	if _, err = rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("random block iv: %w", err)
	}
	return key, iv, nil
}
