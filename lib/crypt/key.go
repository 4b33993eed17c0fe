package crypt

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHexKey decodes hex encoded key material (as found in the configuration).
// Surrounding whitespace is ignored, an empty string yields ErrEmptyKey.
func ParseHexKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyKey
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypt: key is not valid hex: %w", err)
	}
	return key, nil
}

// NewCipher builds the cipher for the given settings: the identity cipher if
// encryption is disabled, a CBC cipher otherwise.
func NewCipher(enabled bool, key []byte) (ICipher, error) {
	if !enabled {
		return NewIdentityCipher(), nil
	}
	return NewCBCCipher(key)
}
