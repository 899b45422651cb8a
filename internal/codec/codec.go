// Package codec implements the ring signature wire format: the ring's
// public keys as concatenated PEM blocks, followed by a single
// trailing line carrying the signature's integers in base64, each
// field delimited by a literal "==" marker.
package codec

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"

	"github.com/udisondev/ringsig/internal/constants"
	"github.com/udisondev/ringsig/internal/ring"
)

const fieldSeparator = constants.SignatureBase64Pad

// Encode writes ringKeys as PEM blocks followed by sig's trailer
// line.
func Encode(ringKeys []*rsa.PublicKey, sig *ring.Signature) ([]byte, error) {
	var buf bytes.Buffer
	for i, pub := range ringKeys {
		der, err := x509.MarshalPKIXPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("codec encode: marshaling ring member %d: %w", i, err)
		}
		if err := pem.Encode(&buf, &pem.Block{Type: "PUBLIC KEY", Bytes: der}); err != nil {
			return nil, fmt.Errorf("codec encode: writing ring member %d: %w", i, err)
		}
	}

	widthBytes := ring.DomainBits(ringKeys) / 8
	if len(sig.X) != len(ringKeys) {
		return nil, fmt.Errorf("codec encode: signature has %d values for a %d-member ring", len(sig.X), len(ringKeys))
	}

	var fields []string
	fields = append(fields, base64.RawStdEncoding.EncodeToString(fixedBytes(sig.V, widthBytes)))
	for i, xi := range sig.X {
		if xi == nil {
			return nil, fmt.Errorf("codec encode: missing x value for ring member %d", i)
		}
		fields = append(fields, base64.RawStdEncoding.EncodeToString(fixedBytes(xi, widthBytes)))
	}
	fields = append(fields, base64.RawStdEncoding.EncodeToString(sig.IV))

	buf.WriteString(strings.Join(fields, fieldSeparator))
	buf.WriteString(fieldSeparator)
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// Decode parses the ring's public keys and the signature from data.
func Decode(data []byte) ([]*rsa.PublicKey, *ring.Signature, error) {
	var keys []*rsa.PublicKey
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "PUBLIC KEY" {
			return nil, nil, fmt.Errorf("codec decode: unexpected PEM block type %q", block.Type)
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, nil, fmt.Errorf("codec decode: parsing ring member %d: %w", len(keys), err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, nil, fmt.Errorf("codec decode: ring member %d is not an RSA key", len(keys))
		}
		keys = append(keys, rsaPub)
	}
	if len(keys) < 2 {
		return nil, nil, fmt.Errorf("codec decode: found %d ring members, need at least 2", len(keys))
	}

	trailer := strings.TrimSpace(string(rest))
	if trailer == "" {
		return nil, nil, fmt.Errorf("codec decode: missing signature trailer")
	}

	parts := strings.Split(trailer, fieldSeparator)
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	expected := len(keys) + 2 // v, x_0..x_{r-1}, iv
	if len(parts) != expected {
		return nil, nil, fmt.Errorf("codec decode: trailer has %d fields, expected %d for a %d-member ring", len(parts), expected, len(keys))
	}

	decodeField := func(s string) ([]byte, error) {
		b, err := base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("codec decode: malformed base64 field: %w", err)
		}
		return b, nil
	}

	vBytes, err := decodeField(parts[0])
	if err != nil {
		return nil, nil, err
	}
	v := new(big.Int).SetBytes(vBytes)

	x := make([]*big.Int, len(keys))
	for i := range keys {
		xb, err := decodeField(parts[1+i])
		if err != nil {
			return nil, nil, fmt.Errorf("codec decode: x value %d: %w", i, err)
		}
		x[i] = new(big.Int).SetBytes(xb)
	}

	ivBytes, err := decodeField(parts[len(parts)-1])
	if err != nil {
		return nil, nil, fmt.Errorf("codec decode: iv: %w", err)
	}

	return keys, &ring.Signature{V: v, X: x, IV: ivBytes}, nil
}

func fixedBytes(x *big.Int, width int) []byte {
	out := make([]byte, width)
	b := x.Bytes()
	if len(b) > width {
		b = b[len(b)-width:]
	}
	copy(out[width-len(b):], b)
	return out
}
