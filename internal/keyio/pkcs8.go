package keyio

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // PBKDF2 default PRF per RFC 8018, not used for confidentiality
	"crypto/sha256"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/udisondev/ringsig/internal/ringerr"
)

// pbkdf2Iterations is the PBKDF2 round count used when encrypting a
// key, matching the default openssl's `pkcs8 -topk8` has used since
// OpenSSL 1.1.0.
const pbkdf2Iterations = 2048

var (
	oidPBES2          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidPBKDF2         = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidAES128CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

type encryptedPrivateKeyInfo struct {
	Algo          pkix.AlgorithmIdentifier
	EncryptedData []byte
}

type pbes2Params struct {
	KeyDerivationFunc pkix.AlgorithmIdentifier
	EncryptionScheme  pkix.AlgorithmIdentifier
}

type pbkdf2Params struct {
	Salt           []byte
	IterationCount int
	KeyLength      int                      `asn1:"optional"`
	PRF            pkix.AlgorithmIdentifier `asn1:"optional"`
}

// decryptPKCS8 decrypts the EncryptedData of a PKCS#8
// EncryptedPrivateKeyInfo structure whose algorithm is PBES2 with a
// PBKDF2 key derivation function and an AES-CBC encryption scheme —
// the combination produced by `openssl pkcs8 -topk8`. There is no
// stdlib support for PKCS#8 encryption (only the legacy PKCS#1
// DEK-Info form is supported, via the deprecated
// x509.DecryptPEMBlock), so this parses the handful of ASN.1
// structures PBES2 needs directly.
func decryptPKCS8(der []byte, password string) ([]byte, error) {
	var info encryptedPrivateKeyInfo
	if _, err := asn1.Unmarshal(der, &info); err != nil {
		return nil, fmt.Errorf("keyio: parsing EncryptedPrivateKeyInfo: %w", err)
	}
	if !info.Algo.Algorithm.Equal(oidPBES2) {
		return nil, fmt.Errorf("%w: unsupported key encryption scheme %v (only PBES2 is supported)",
			ringerr.ErrUnsupportedKeyType, info.Algo.Algorithm)
	}

	var params pbes2Params
	if _, err := asn1.Unmarshal(info.Algo.Parameters.FullBytes, &params); err != nil {
		return nil, fmt.Errorf("keyio: parsing PBES2 params: %w", err)
	}
	if !params.KeyDerivationFunc.Algorithm.Equal(oidPBKDF2) {
		return nil, fmt.Errorf("%w: unsupported key derivation function %v (only PBKDF2 is supported)",
			ringerr.ErrUnsupportedKeyType, params.KeyDerivationFunc.Algorithm)
	}

	var kdf pbkdf2Params
	if _, err := asn1.Unmarshal(params.KeyDerivationFunc.Parameters.FullBytes, &kdf); err != nil {
		return nil, fmt.Errorf("keyio: parsing PBKDF2 params: %w", err)
	}

	var keySize int
	switch {
	case params.EncryptionScheme.Algorithm.Equal(oidAES256CBC):
		keySize = 32
	case params.EncryptionScheme.Algorithm.Equal(oidAES192CBC):
		keySize = 24
	case params.EncryptionScheme.Algorithm.Equal(oidAES128CBC):
		keySize = 16
	default:
		return nil, fmt.Errorf("%w: unsupported encryption scheme %v",
			ringerr.ErrUnsupportedKeyType, params.EncryptionScheme.Algorithm)
	}
	if kdf.KeyLength != 0 {
		keySize = kdf.KeyLength
	}

	var iv []byte
	if _, err := asn1.Unmarshal(params.EncryptionScheme.Parameters.FullBytes, &iv); err != nil {
		return nil, fmt.Errorf("keyio: parsing encryption IV: %w", err)
	}

	prf := sha1.New
	if len(kdf.PRF.Algorithm) != 0 && !kdf.PRF.Algorithm.Equal(oidHMACWithSHA1) {
		if !kdf.PRF.Algorithm.Equal(oidHMACWithSHA256) {
			return nil, fmt.Errorf("%w: unsupported PBKDF2 PRF %v", ringerr.ErrUnsupportedKeyType, kdf.PRF.Algorithm)
		}
		prf = sha256.New
	}

	key := pbkdf2.Key([]byte(password), kdf.Salt, kdf.IterationCount, keySize, prf)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keyio: building cipher: %w", err)
	}
	if len(info.EncryptedData)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ringerr.ErrMalformedSignature)
	}
	out := make([]byte, len(info.EncryptedData))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, info.EncryptedData)

	return removePKCS7Padding(out)
}

// EncryptPKCS8 wraps der (a PKCS#8 PrivateKeyInfo encoding) in a PBES2
// EncryptedPrivateKeyInfo structure, using PBKDF2-HMAC-SHA256 for key
// derivation and AES-256-CBC for encryption — the same combination
// decryptPKCS8 reads back, and the one `openssl pkcs8 -topk8 -v2
// aes256` produces.
func EncryptPKCS8(der []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyio: generating salt: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("keyio: generating iv: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keyio: building cipher: %w", err)
	}

	padded := addPKCS7Padding(der, aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	ivDER, err := asn1.Marshal(iv)
	if err != nil {
		return nil, fmt.Errorf("keyio: marshaling iv: %w", err)
	}
	kdfParamsDER, err := asn1.Marshal(pbkdf2Params{
		Salt:           salt,
		IterationCount: pbkdf2Iterations,
		PRF:            pkix.AlgorithmIdentifier{Algorithm: oidHMACWithSHA256},
	})
	if err != nil {
		return nil, fmt.Errorf("keyio: marshaling PBKDF2 params: %w", err)
	}
	pbes2ParamsDER, err := asn1.Marshal(pbes2Params{
		KeyDerivationFunc: pkix.AlgorithmIdentifier{
			Algorithm:  oidPBKDF2,
			Parameters: asn1.RawValue{FullBytes: kdfParamsDER},
		},
		EncryptionScheme: pkix.AlgorithmIdentifier{
			Algorithm:  oidAES256CBC,
			Parameters: asn1.RawValue{FullBytes: ivDER},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("keyio: marshaling PBES2 params: %w", err)
	}

	info, err := asn1.Marshal(encryptedPrivateKeyInfo{
		Algo: pkix.AlgorithmIdentifier{
			Algorithm:  oidPBES2,
			Parameters: asn1.RawValue{FullBytes: pbes2ParamsDER},
		},
		EncryptedData: encrypted,
	})
	if err != nil {
		return nil, fmt.Errorf("keyio: marshaling EncryptedPrivateKeyInfo: %w", err)
	}
	return info, nil
}

func addPKCS7Padding(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func removePKCS7Padding(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ringerr.ErrBadPassword)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ringerr.ErrBadPassword)
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, fmt.Errorf("%w: invalid padding", ringerr.ErrBadPassword)
	}
	return data[:len(data)-padLen], nil
}
