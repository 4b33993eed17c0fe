package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// cbcCipher implements ICipher with AES in CBC mode and zero padding.
type cbcCipher struct {
	block cipher.Block
}

// NewCBCCipher creates a cipher from the given key.
// The key must be 16, 24 or 32 bytes long (AES-128, AES-192, AES-256).
// The key is only read during construction, later changes to the slice have no effect.
func NewCBCCipher(key []byte) (ICipher, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes (expected 16, 24 or 32)", ErrInvalidKeySize, len(key))
	}
	return &cbcCipher{block: block}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see crypt.ICipher)
// --------------------------------------------------------------------------

func (c *cbcCipher) Enabled() bool {
	return true
}

func (c *cbcCipher) Encrypt(plaintext, iv []byte) ([]byte, error) {
	if len(iv) != c.block.BlockSize() {
		return nil, ErrInvalidIV
	}

	padded := zeroPad(plaintext, c.block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func (c *cbcCipher) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != c.block.BlockSize() {
		return nil, ErrInvalidIV
	}
	if len(ciphertext)%c.block.BlockSize() != 0 {
		return nil, ErrInvalidCiphertext
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

func (c *cbcCipher) Seal(plaintext []byte) ([]byte, []byte, error) {
	iv := make([]byte, c.block.BlockSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("crypt: failed to generate iv: %w", err)
	}

	ciphertext, err := c.Encrypt(plaintext, iv)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, iv, nil
}

func (c *cbcCipher) Open(ciphertext, iv []byte) ([]byte, error) {
	plaintext, err := c.Decrypt(ciphertext, iv)
	if err != nil {
		return nil, err
	}
	return zeroUnpad(plaintext), nil
}

// --------------------------------------------------------------------------
// Padding
// --------------------------------------------------------------------------

// zeroPad returns a copy of data padded with zero bytes to a multiple of blockSize.
// Block aligned input (including empty input) gets no extra block.
func zeroPad(data []byte, blockSize int) []byte {
	padLen := 0
	if rem := len(data) % blockSize; rem != 0 {
		padLen = blockSize - rem
	}

	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	return padded
}

// zeroUnpad strips all trailing zero bytes.
func zeroUnpad(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
