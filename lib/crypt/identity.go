package crypt

// identityCipher is the "encryption disabled" strategy. It copies data through
// unchanged and never produces an iv.
type identityCipher struct{}

// NewIdentityCipher returns a cipher that does not encrypt.
func NewIdentityCipher() ICipher {
	return identityCipher{}
}

func (identityCipher) Enabled() bool { return false }

func (identityCipher) Encrypt(plaintext, _ []byte) ([]byte, error) {
	return clone(plaintext), nil
}

func (identityCipher) Decrypt(ciphertext, _ []byte) ([]byte, error) {
	return clone(ciphertext), nil
}

func (identityCipher) Seal(plaintext []byte) ([]byte, []byte, error) {
	return clone(plaintext), nil, nil
}

func (identityCipher) Open(ciphertext, _ []byte) ([]byte, error) {
	return clone(ciphertext), nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
