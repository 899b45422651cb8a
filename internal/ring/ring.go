package ring

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/ringsig/internal/crypto"
)

// Signature is the algebraic output of Sign: the ring-equation pivot
// v, one value x_i per ring member, and the IV used to seed the
// keyed block permutation for this signature. SignatureCodec (see
// internal/codec) is responsible for its wire encoding.
type Signature struct {
	V  *big.Int
	X  []*big.Int
	IV []byte
}

// Sign produces a ring signature over message, proving that whoever
// produced it holds the private key for ring[signerIndex], without
// revealing signerIndex to a verifier.
func Sign(ctx context.Context, ring []*rsa.PublicKey, signerIndex int, signerKey *rsa.PrivateKey, message []byte) (*Signature, error) {
	r := len(ring)
	if r < 2 {
		return nil, fmt.Errorf("ring sign: ring must have at least 2 members, got %d", r)
	}
	if signerIndex < 0 || signerIndex >= r {
		return nil, fmt.Errorf("ring sign: signer index %d out of range [0,%d)", signerIndex, r)
	}
	if ring[signerIndex].N.Cmp(signerKey.N) != 0 {
		return nil, fmt.Errorf("ring sign: signer key does not match ring member %d", signerIndex)
	}

	b := DomainBits(ring)

	hash := sha256.Sum256(message)
	_, iv, err := crypto.RandomBlockKey()
	if err != nil {
		return nil, fmt.Errorf("ring sign: %w", err)
	}
	prp, err := crypto.NewBlockPRP(hash[:], iv)
	if err != nil {
		return nil, fmt.Errorf("ring sign: %w", err)
	}

	v, err := crypto.RandomBigInt(b)
	if err != nil {
		return nil, fmt.Errorf("ring sign: %w", err)
	}

	ext := make([]*crypto.ExtendedPermutation, r)
	for i, pub := range ring {
		if i == signerIndex {
			ext[i] = crypto.NewExtendedPermutation(pub, signerKey, b)
		} else {
			ext[i] = crypto.NewExtendedPermutation(pub, nil, b)
		}
	}

	x := make([]*big.Int, r)
	y := make([]*big.Int, r)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range ring {
		if i == signerIndex {
			continue
		}
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			xi, err := crypto.RandomBigInt(b)
			if err != nil {
				return fmt.Errorf("ring sign: member %d: %w", i, err)
			}
			yi, err := ext[i].Forward(xi)
			if err != nil {
				return fmt.Errorf("ring sign: member %d: %w", i, err)
			}
			x[i] = xi
			y[i] = yi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Forward pass: z_{-1} = v, walk indices [0, signerIndex) to land
	// on z_{signerIndex-1}.
	zPrev := new(big.Int).Set(v)
	for i := 0; i < signerIndex; i++ {
		input := new(big.Int).Xor(y[i], zPrev)
		zPrev, err = prp.Eval(input)
		if err != nil {
			return nil, fmt.Errorf("ring sign: forward pass at %d: %w", i, err)
		}
	}

	// Backward pass: z_{r-1} = v, walk indices (signerIndex, r-1] in
	// reverse, peeling off each known y_i, to land on z_signerIndex.
	zAtSigner := new(big.Int).Set(v)
	for i := r - 1; i > signerIndex; i-- {
		dec, err := prp.Invert(zAtSigner)
		if err != nil {
			return nil, fmt.Errorf("ring sign: backward pass at %d: %w", i, err)
		}
		zAtSigner = new(big.Int).Xor(dec, y[i])
	}

	// Close the ring equation: z_signerIndex = Eval(y_signerIndex XOR
	// z_{signerIndex-1}), so y_signerIndex = Invert(z_signerIndex) XOR
	// z_{signerIndex-1}.
	decAtSigner, err := prp.Invert(zAtSigner)
	if err != nil {
		return nil, fmt.Errorf("ring sign: closing: %w", err)
	}
	ySigner := new(big.Int).Xor(decAtSigner, zPrev)

	xSigner, err := ext[signerIndex].Inverse(ySigner)
	if err != nil {
		return nil, fmt.Errorf("ring sign: inverting signer trapdoor: %w", err)
	}
	x[signerIndex] = xSigner

	return &Signature{V: v, X: x, IV: iv}, nil
}

// Verify checks whether sig is a valid ring signature over message
// for the given ring. A false result with a nil error means the
// signature did not verify; it is not itself an error condition.
func Verify(ctx context.Context, ringKeys []*rsa.PublicKey, message []byte, sig *Signature) (bool, error) {
	r := len(ringKeys)
	if r < 2 {
		return false, fmt.Errorf("ring verify: ring must have at least 2 members, got %d", r)
	}
	if len(sig.X) != r {
		return false, fmt.Errorf("ring verify: signature has %d values for a %d-member ring", len(sig.X), r)
	}
	if len(sig.IV) != 16 {
		return false, fmt.Errorf("ring verify: iv must be 16 bytes, got %d", len(sig.IV))
	}

	b := DomainBits(ringKeys)

	// Every value of a well-formed signature lies in [0, 2^b); a wider
	// value cannot close the ring equation.
	if sig.V.BitLen() > b {
		return false, nil
	}
	for _, xi := range sig.X {
		if xi.BitLen() > b {
			return false, nil
		}
	}

	hash := sha256.Sum256(message)
	prp, err := crypto.NewBlockPRP(hash[:], sig.IV)
	if err != nil {
		return false, fmt.Errorf("ring verify: %w", err)
	}

	y := make([]*big.Int, r)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pub := range ringKeys {
		i, pub := i, pub
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ext := crypto.NewExtendedPermutation(pub, nil, b)
			yi, err := ext.Forward(sig.X[i])
			if err != nil {
				return fmt.Errorf("ring verify: member %d: %w", i, err)
			}
			y[i] = yi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	glue := new(big.Int).Set(sig.V)
	for i := 0; i < r; i++ {
		input := new(big.Int).Xor(y[i], glue)
		glue, err = prp.Eval(input)
		if err != nil {
			return false, fmt.Errorf("ring verify: chain step %d: %w", i, err)
		}
	}

	widthBytes := (b + 7) / 8
	return subtle.ConstantTimeCompare(toFixedBytes(glue, widthBytes), toFixedBytes(sig.V, widthBytes)) == 1, nil
}

// toFixedBytes encodes x as a big-endian buffer exactly width bytes
// long, left-padded with zeros. x must fit (bit length <= width*8),
// which DomainBits guarantees for every value the ring core produces.
func toFixedBytes(x *big.Int, width int) []byte {
	out := make([]byte, width)
	x.FillBytes(out)
	return out
}
