// Package keyio loads ring public keys and signer private keys from
// PEM files, including password-protected private keys in both the
// legacy PKCS#1 DEK-Info form and the modern PKCS#8 PBES2 form.
package keyio

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/udisondev/ringsig/internal/ringerr"
)

// LoadRing parses every "PUBLIC KEY" PEM block in the file at path
// into an ordered ring of RSA public keys.
func LoadRing(path string) ([]*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyio: reading ring file %s: %w", path, err)
	}

	var keys []*rsa.PublicKey
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "PUBLIC KEY" {
			continue
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keyio: parsing ring member %d: %w", len(keys), err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: ring member %d", ringerr.ErrUnsupportedKeyType, len(keys))
		}
		keys = append(keys, rsaPub)
	}
	if len(keys) < 2 {
		return nil, fmt.Errorf("keyio: ring file %s has %d members, need at least 2", path, len(keys))
	}
	return keys, nil
}

// LoadPrivateKey reads an RSA private key from a PEM file at path.
// The key may be one of:
//   - "RSA PRIVATE KEY" (PKCS#1), optionally DEK-Info encrypted
//     (legacy OpenSSL format, requires password)
//   - "PRIVATE KEY" (PKCS#8, unencrypted)
//   - "ENCRYPTED PRIVATE KEY" (PKCS#8, PBES2 + PBKDF2, requires
//     password)
func LoadPrivateKey(path string, password string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyio: reading key file %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found in %s", ringerr.ErrMalformedSignature, path)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		der := block.Bytes
		//nolint:staticcheck // legacy OpenSSL DEK-Info format has no
		// maintained non-deprecated stdlib replacement.
		if x509.IsEncryptedPEMBlock(block) {
			//nolint:staticcheck
			decrypted, err := x509.DecryptPEMBlock(block, []byte(password))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ringerr.ErrBadPassword, err)
			}
			der = decrypted
		}
		priv, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("keyio: parsing PKCS#1 key: %w", err)
		}
		priv.Precompute()
		return priv, nil

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keyio: parsing PKCS#8 key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ringerr.ErrUnsupportedKeyType
		}
		rsaKey.Precompute()
		return rsaKey, nil

	case "ENCRYPTED PRIVATE KEY":
		der, err := decryptPKCS8(block.Bytes, password)
		if err != nil {
			return nil, err
		}
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ringerr.ErrBadPassword, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ringerr.ErrUnsupportedKeyType
		}
		rsaKey.Precompute()
		return rsaKey, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ringerr.ErrUnsupportedKeyType, block.Type)
	}
}
