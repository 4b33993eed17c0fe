// Package mstore implements the in-memory store.IStore of lucid: a thin layer
// over any db.KVDB that adds optional value encryption, per key write locks and
// atomic numeric add.
//
// Key Features:
//   - Values are encrypted at rest through a crypt.ICipher. Disabled encryption
//     is the identity cipher, so every read and write takes the same path
//   - Every element gets a fresh random iv on each write
//   - A locked element keeps its data; writes to it only touch the metadata
//     (UpdatedAt and UpdateCount)
//   - Add parses the stored value as a float, adds to it and writes the result
//     back as one atomic step
//   - Content tags are sniffed from the plaintext with mimetype
//   - Per store operation counters and a key gauge in a VictoriaMetrics set
//
// Implementation Details:
//
//   - Per Key Exclusivity: All read/modify/write cycles run inside
//     db.KVDB.Compute, which serializes operations on the same key without a
//     global lock. Encryption for Set happens before entering Compute so the
//     key is held only for the metadata decisions.
//
//   - Returned Elements: Elements handed out always hold the plaintext and never
//     share memory with the stored element. The iv of the stored element is
//     kept on the returned copy.
//
//   - Set Convention: Set on a key that does not exist returns the zero element
//     and loaded=false. On an existing key it returns the element after the
//     write (or the touch, if locked) and loaded=true.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. The cipher is stateless and
//	shared by all goroutines.
//
// Usage Example:
//
//	cipher, _ := crypt.NewCBCCipher(key)
//	s := mstore.NewMemoryStore(func() db.KVDB { return maple.NewMapleDB(nil) }, &mstore.Options{
//		Cipher: cipher,
//		Name:   "default",
//	})
//
//	_, _, err := s.Set("visits", []byte("41"))
//	ok, err := s.Add("visits", 1)
//	elem, found, err := s.Get("visits") // elem.Data == "42"
package mstore
