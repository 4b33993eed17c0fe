package mstore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lucid-kv/lucid/lib/crypt"
	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/db/engines/maple"
	"github.com/lucid-kv/lucid/lib/store"
	storetesting "github.com/lucid-kv/lucid/lib/store/testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f1011121314151617"

func mapleFactory() db.KVDB {
	return maple.NewMapleDB(nil)
}

func newTestCipher(t testing.TB, size int) crypt.ICipher {
	t.Helper()
	key := make([]byte, size)
	for i := range key {
		key[i] = byte(i * 7)
	}
	cipher, err := crypt.NewCBCCipher(key)
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}
	return cipher
}

// newEncryptedStore returns a store with encryption enabled and its underlying db
func newEncryptedStore(t *testing.T) (store.IStore, db.KVDB) {
	t.Helper()
	key, err := crypt.ParseHexKey(testKeyHex)
	if err != nil {
		t.Fatalf("parsing key: %v", err)
	}
	cipher, err := crypt.NewCBCCipher(key)
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}

	database := maple.NewMapleDB(nil)
	s := NewMemoryStore(func() db.KVDB { return database }, &Options{Cipher: cipher})
	return s, database
}

func storeErrorCode(t *testing.T, err error) store.RetCode {
	t.Helper()
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *store.Error, got %T (%v)", err, err)
	}
	return storeErr.Code
}

// --------------------------------------------------------------------------
// Shared suite
// --------------------------------------------------------------------------

func TestMemoryStore(t *testing.T) {
	storetesting.RunStoreTests(t, "Plain", func() store.IStore {
		return NewMemoryStore(mapleFactory, nil)
	})

	storetesting.RunStoreTests(t, "PlainSingleShard", func() store.IStore {
		return NewMemoryStore(func() db.KVDB {
			return maple.NewMapleDB(&maple.DBOptions{NumShards: 1})
		}, nil)
	})

	for _, size := range []int{16, 24, 32} {
		cipher := newTestCipher(t, size)
		storetesting.RunStoreTests(t, fmt.Sprintf("AES-%d", size*8), func() store.IStore {
			return NewMemoryStore(mapleFactory, &Options{Cipher: cipher})
		})
	}
}

// --------------------------------------------------------------------------
// Encryption
// --------------------------------------------------------------------------

func TestEncryptedAtRest(t *testing.T) {
	s, database := newEncryptedStore(t)

	plaintext := []byte("a secret that must not be stored in the clear")
	if _, _, err := s.Set("secret", plaintext); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, ok := database.Load("secret")
	if !ok {
		t.Fatalf("Element not stored")
	}
	if bytes.Contains(raw.Data, plaintext[:16]) {
		t.Errorf("Stored data contains the plaintext")
	}
	if len(raw.Data)%16 != 0 {
		t.Errorf("Stored data is not block aligned (%d bytes)", len(raw.Data))
	}
	if len(raw.IV) != 16 {
		t.Errorf("Expected a 16 byte iv, got %d bytes", len(raw.IV))
	}

	elem, ok, err := s.Get("secret")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(elem.Data, plaintext) {
		t.Errorf("Get returned %q, expected %q", elem.Data, plaintext)
	}
	if !bytes.Equal(elem.IV, raw.IV) {
		t.Errorf("Returned element should carry the stored iv")
	}
}

func TestEncryptionUsesFreshIV(t *testing.T) {
	s, database := newEncryptedStore(t)

	value := []byte("same value")
	_, _, _ = s.Set("key", value)
	first, _ := database.Load("key")

	_, _, _ = s.Set("key", value)
	second, _ := database.Load("key")

	if bytes.Equal(first.IV, second.IV) {
		t.Errorf("Each write must use a fresh iv")
	}
	if bytes.Equal(first.Data, second.Data) {
		t.Errorf("Identical plaintexts should produce different ciphertexts")
	}
}

func TestAddOnEncryptedValue(t *testing.T) {
	s, database := newEncryptedStore(t)

	_, _, _ = s.Set("counter", []byte("41"))
	before, _ := database.Load("counter")

	ok, err := s.Add("counter", 1)
	if err != nil || !ok {
		t.Fatalf("Add failed: ok=%v err=%v", ok, err)
	}

	after, _ := database.Load("counter")
	if bytes.Equal(before.IV, after.IV) {
		t.Errorf("Add should re-encrypt with a fresh iv")
	}
	if bytes.Contains(after.Data, []byte("42")) {
		t.Errorf("Stored result is not encrypted")
	}

	elem, _, _ := s.Get("counter")
	if string(elem.Data) != "42" {
		t.Errorf("Expected 42, got %q", elem.Data)
	}
}

func TestLockedSetKeepsCiphertext(t *testing.T) {
	s, database := newEncryptedStore(t)

	_, _, _ = s.Set("key", []byte("v1"))
	_, _ = s.SetLock("key", true)
	before, _ := database.Load("key")

	elem, loaded, err := s.Set("key", []byte("v2"))
	if err != nil || !loaded {
		t.Fatalf("Set failed: loaded=%v err=%v", loaded, err)
	}
	if string(elem.Data) != "v1" {
		t.Errorf("Locked Set should return the decrypted stored value, got %q", elem.Data)
	}

	after, _ := database.Load("key")
	if !bytes.Equal(before.Data, after.Data) || !bytes.Equal(before.IV, after.IV) {
		t.Errorf("Locked Set must not change data or iv")
	}
	if after.UpdateCount != before.UpdateCount+1 {
		t.Errorf("Locked Set should touch the element")
	}
}

func TestMissingIV(t *testing.T) {
	s, database := newEncryptedStore(t)

	database.Compute("broken", func(db.Element, bool) (db.Element, bool) {
		return db.Element{Data: make([]byte, 16), UpdateCount: 1}, false
	})

	_, _, err := s.Get("broken")
	if err == nil {
		t.Fatalf("Get on an element without iv should fail")
	}
	if code := storeErrorCode(t, err); code != store.RetCInternalError {
		t.Errorf("Expected RetCInternalError, got %v", code)
	}

	ok, err := s.Add("broken", 1)
	if ok || err == nil {
		t.Errorf("Add on an element without iv should fail, ok=%v err=%v", ok, err)
	}
}

func TestCorruptedCiphertext(t *testing.T) {
	s, database := newEncryptedStore(t)

	_, _, _ = s.Set("key", []byte("value"))
	database.Compute("key", func(old db.Element, _ bool) (db.Element, bool) {
		old.Data = old.Data[:5] // no longer block aligned
		return old, false
	})
	before, _ := database.Load("key")

	_, _, err := s.Get("key")
	if code := storeErrorCode(t, err); code != store.RetCCryptoError {
		t.Errorf("Expected RetCCryptoError, got %v", code)
	}

	ok, err := s.Add("key", 1)
	if ok {
		t.Errorf("Add on a corrupted element should fail")
	}
	if code := storeErrorCode(t, err); code != store.RetCCryptoError {
		t.Errorf("Expected RetCCryptoError, got %v", code)
	}

	after, _ := database.Load("key")
	if after.UpdateCount != before.UpdateCount || !bytes.Equal(after.Data, before.Data) {
		t.Errorf("A failed Add must not change the element")
	}
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

func TestContentTag(t *testing.T) {
	s := NewMemoryStore(mapleFactory, nil)

	cases := []struct {
		value    []byte
		expected string
	}{
		{[]byte("just some text"), "text/plain; charset=utf-8"},
		{[]byte(`{"name": "lucid", "version": 1}`), "application/json"},
		{[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "image/png"},
	}

	for _, c := range cases {
		_, _, _ = s.Set("key", c.value)
		elem, _, _ := s.Get("key")
		if elem.ContentTag != c.expected {
			t.Errorf("Content tag for %q: expected %q, got %q", c.value, c.expected, elem.ContentTag)
		}
	}

	// the tag follows the plaintext, not the ciphertext
	enc, _ := newEncryptedStore(t)
	_, _, _ = enc.Set("key", []byte(`{"a": 1}`))
	elem, _, _ := enc.Get("key")
	if elem.ContentTag != "application/json" {
		t.Errorf("Encrypted store should tag the plaintext, got %q", elem.ContentTag)
	}
}

func TestMetrics(t *testing.T) {
	set := metrics.NewSet()
	s := NewMemoryStore(mapleFactory, &Options{Name: "test", Metrics: set})

	_, _, _ = s.Set("a", []byte("1"))
	_, _, _ = s.Set("a", []byte("2"))
	_, _, _ = s.Get("a")
	_, _, _ = s.Get("missing")
	_, _ = s.Add("a", 1)

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()

	expected := []string{
		`lucid_store_ops_total{store="test",op="set",result="created"} 1`,
		`lucid_store_ops_total{store="test",op="set",result="ok"} 1`,
		`lucid_store_ops_total{store="test",op="get",result="ok"} 1`,
		`lucid_store_ops_total{store="test",op="get",result="miss"} 1`,
		`lucid_store_ops_total{store="test",op="add",result="ok"} 1`,
		`lucid_store_keys{store="test"} 1`,
	}
	for _, line := range expected {
		if !strings.Contains(out, line) {
			t.Errorf("Metrics output is missing %q", line)
		}
	}
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func BenchmarkMemoryStore(b *testing.B) {
	stores := map[string]func() store.IStore{
		"Plain": func() store.IStore { return NewMemoryStore(mapleFactory, nil) },
		"CBC": func() store.IStore {
			return NewMemoryStore(mapleFactory, &Options{Cipher: newTestCipher(b, 32)})
		},
	}

	for name, factory := range stores {
		b.Run(name+"/Set", func(b *testing.B) {
			s := factory()
			value := []byte("benchmark value")
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, _, _ = s.Set("key", value)
				}
			})
		})

		b.Run(name+"/Get", func(b *testing.B) {
			s := factory()
			_, _, _ = s.Set("key", []byte("benchmark value"))
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, _, _ = s.Get("key")
				}
			})
		})

		b.Run(name+"/Add", func(b *testing.B) {
			s := factory()
			_, _, _ = s.Set("counter", []byte("0"))
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, _ = s.Add("counter", 1)
				}
			})
		})
	}
}
