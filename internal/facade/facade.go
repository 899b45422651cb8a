// Package facade ties together key loading, the ring signature core,
// and the wire codec into the two operations external callers (the
// CLI and the HTTP upload server) actually need: Sign and Verify.
package facade

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/udisondev/ringsig/internal/codec"
	"github.com/udisondev/ringsig/internal/keyio"
	"github.com/udisondev/ringsig/internal/ring"
	"github.com/udisondev/ringsig/internal/ringerr"
)

// SignRequest names the inputs needed to produce a ring signature.
type SignRequest struct {
	RingPath    string
	KeyPath     string
	SignerIndex int
	Message     []byte
	Password    string
	OutputPath  string
}

// VerifyRequest names the inputs needed to check a ring signature.
type VerifyRequest struct {
	SignaturePath string
	Message       []byte
}

// Sign loads the ring and the signer's private key, produces a ring
// signature over req.Message, and writes it to req.OutputPath.
func Sign(ctx context.Context, req SignRequest) error {
	ringKeys, err := keyio.LoadRing(req.RingPath)
	if err != nil {
		return fmt.Errorf("facade sign: %w", err)
	}
	if req.SignerIndex < 0 || req.SignerIndex >= len(ringKeys) {
		return fmt.Errorf("facade sign: %w: index %d, ring size %d", ringerr.ErrIndexOutOfRange, req.SignerIndex, len(ringKeys))
	}

	signerKey, err := keyio.LoadPrivateKey(req.KeyPath, req.Password)
	if err != nil {
		return fmt.Errorf("facade sign: %w", err)
	}
	if ringKeys[req.SignerIndex].N.Cmp(signerKey.N) != 0 {
		return fmt.Errorf("facade sign: %w: index %d", ringerr.ErrSignerKeyMismatch, req.SignerIndex)
	}

	sig, err := ring.Sign(ctx, ringKeys, req.SignerIndex, signerKey, req.Message)
	if err != nil {
		return fmt.Errorf("facade sign: %w", err)
	}

	wire, err := codec.Encode(ringKeys, sig)
	if err != nil {
		return fmt.Errorf("facade sign: %w", err)
	}

	if err := os.WriteFile(req.OutputPath, wire, 0o644); err != nil {
		return fmt.Errorf("facade sign: writing %s: %w", req.OutputPath, err)
	}

	slog.Info("ring signature produced", "ring_size", len(ringKeys), "output", req.OutputPath)
	return nil
}

// Verify parses a signature file and checks it against req.Message.
// A false, nil result means the signature does not verify; that is
// not itself an error.
func Verify(ctx context.Context, req VerifyRequest) (bool, error) {
	data, err := os.ReadFile(req.SignaturePath)
	if err != nil {
		return false, fmt.Errorf("facade verify: reading %s: %w", req.SignaturePath, err)
	}

	ringKeys, sig, err := codec.Decode(data)
	if err != nil {
		return false, fmt.Errorf("facade verify: %w: %v", ringerr.ErrMalformedSignature, err)
	}

	ok, err := ring.Verify(ctx, ringKeys, req.Message, sig)
	if err != nil {
		return false, fmt.Errorf("facade verify: %w", err)
	}

	slog.Info("ring signature checked", "ring_size", len(ringKeys), "valid", ok)
	return ok, nil
}
