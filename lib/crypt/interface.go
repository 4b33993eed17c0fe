package crypt

import "errors"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ICipher is a symmetric cipher used to protect stored values.
// Implementations must be safe for concurrent use.
type ICipher interface {
	// Enabled reports whether the cipher actually transforms data.
	// It is false only for the identity cipher.
	Enabled() bool

	// Encrypt encrypts the plaintext with the given iv. The plaintext is zero
	// padded to a multiple of the block size. The result is deterministic for a
	// given (key, iv, plaintext).
	Encrypt(plaintext, iv []byte) (ciphertext []byte, err error)

	// Decrypt reverses Encrypt. The zero padding is NOT removed.
	// It fails if the ciphertext length is not a multiple of the block size.
	Decrypt(ciphertext, iv []byte) (plaintext []byte, err error)

	// Seal encrypts the plaintext with a freshly generated random iv and returns
	// both. The iv must be kept next to the ciphertext, it is needed by Open.
	Seal(plaintext []byte) (ciphertext, iv []byte, err error)

	// Open decrypts the ciphertext and strips the zero padding.
	Open(ciphertext, iv []byte) (plaintext []byte, err error)
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrInvalidKeySize is returned when the key length is not supported by the block cipher.
	ErrInvalidKeySize = errors.New("crypt: invalid key size")
	// ErrInvalidIV is returned when the iv does not match the block size.
	ErrInvalidIV = errors.New("crypt: invalid iv length")
	// ErrInvalidCiphertext is returned when the ciphertext is not a multiple of the block size.
	ErrInvalidCiphertext = errors.New("crypt: ciphertext is not a multiple of the block size")
	// ErrEmptyKey is returned when key material is required but none was given.
	ErrEmptyKey = errors.New("crypt: empty key")
)
