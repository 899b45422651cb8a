// Package ringerr defines the sentinel errors the facade and its
// adapters (CLI, HTTP) check with errors.Is, instead of string
// matching on wrapped error text.
package ringerr

import "errors"

var (
	// ErrMalformedSignature means the signature file could not be
	// parsed into a ring and a signature. keyio also returns it for a
	// private key file with no PEM block, or whose PKCS#8 ciphertext
	// is not a whole number of AES blocks.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrIndexOutOfRange means the claimed signer index does not name
	// a position in the ring.
	ErrIndexOutOfRange = errors.New("signer index out of range")

	// ErrSignerKeyMismatch means the supplied private key's modulus
	// does not match the ring member at the claimed index.
	ErrSignerKeyMismatch = errors.New("signer key does not match ring member")

	// ErrUnsupportedKeyType means a PEM block decoded to a key type
	// other than RSA.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrBadPassword means private key decryption failed, most likely
	// because of a wrong password.
	ErrBadPassword = errors.New("incorrect password or corrupt key")
)
