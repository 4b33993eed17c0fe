// Package crypt provides the symmetric encryption layer that the store applies
// to values on their way in and out of the container.
//
// The package exposes a single strategy interface, ICipher. Stores never branch
// on whether encryption is configured: they always route values through a
// cipher, and the "no encryption" case is the identity transform returned by
// NewIdentityCipher.
//
// Key Components:
//
//   - ICipher: Raw block transforms (Encrypt, Decrypt) plus the two helpers the
//     store actually uses (Seal, Open). Seal draws a fresh random IV for every
//     call, Open removes the zero padding again.
//
//   - CBC cipher: AES in CBC mode with zero padding. The key is fixed at
//     construction and shared read-only, so a single instance can be used from
//     any number of goroutines.
//
//   - Identity cipher: Copies the input and never produces an IV.
//
// Zero Padding:
//
//	Plaintexts are padded with 0x00 bytes up to the next block boundary. This
//	padding is ambiguous and the package does not try to hide that:
//
//	- Decrypt returns the padded plaintext. A plaintext whose length is not a
//	  multiple of the block size comes back with trailing zero bytes.
//	- Open strips all trailing zero bytes. A plaintext that really ends in one
//	  or more 0x00 bytes loses them.
//
//	Values that must survive byte for byte (binary blobs ending in zeros)
//	should not be stored with encryption enabled.
//
// Usage Example:
//
//	key, _ := crypt.ParseHexKey("000102030405060708090a0b0c0d0e0f")
//	c, err := crypt.NewCBCCipher(key)
//	if err != nil {
//	    // invalid key size
//	}
//
//	ciphertext, iv, err := c.Seal([]byte("hello"))
//	plaintext, err := c.Open(ciphertext, iv) // "hello"
package crypt
