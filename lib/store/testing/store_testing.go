package testing

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/lucid-kv/lucid/lib/store"
)

// StoreFactory is a function that creates a new, empty store
type StoreFactory func() store.IStore

// RunStoreTests runs the behavioural test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Get&Set", func(t *testing.T) {
			testGetSet(t, factory())
		})

		t.Run("SetFreshKey", func(t *testing.T) {
			testSetFreshKey(t, factory())
		})

		t.Run("SetExisting", func(t *testing.T) {
			testSetExisting(t, factory())
		})

		t.Run("LockPreventsMutation", func(t *testing.T) {
			testLockPreventsMutation(t, factory())
		})

		t.Run("Unlock", func(t *testing.T) {
			testUnlock(t, factory())
		})

		t.Run("Add", func(t *testing.T) {
			testAdd(t, factory())
		})

		t.Run("AddNonNumeric", func(t *testing.T) {
			testAddNonNumeric(t, factory())
		})

		t.Run("AddLocked", func(t *testing.T) {
			testAddLocked(t, factory())
		})

		t.Run("DeleteIgnoresLock", func(t *testing.T) {
			testDeleteIgnoresLock(t, factory())
		})

		t.Run("UnknownKey", func(t *testing.T) {
			testUnknownKey(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentSet", func(t *testing.T) {
			testConcurrentSet(t, factory())
		})

		t.Run("ConcurrentAdd", func(t *testing.T) {
			testConcurrentAdd(t, factory())
		})

		t.Run("ConcurrentKeys", func(t *testing.T) {
			testConcurrentKeys(t, factory())
		})

		t.Run("DBInfo", func(t *testing.T) {
			testDBInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustSet(t *testing.T, s store.IStore, key string, value []byte) {
	t.Helper()
	if _, _, err := s.Set(key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mustGet(t *testing.T, s store.IStore, key string) ([]byte, uint64) {
	t.Helper()
	elem, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	if !ok {
		t.Fatalf("Get(%q): key not found", key)
	}
	return elem.Data, elem.UpdateCount
}

func mustSetLock(t *testing.T, s store.IStore, key string, locked bool) {
	t.Helper()
	ok, err := s.SetLock(key, locked)
	if err != nil {
		t.Fatalf("SetLock(%q) failed: %v", key, err)
	}
	if !ok {
		t.Fatalf("SetLock(%q) returned false for an existing key", key)
	}
}

func parse(t *testing.T, data []byte) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		t.Fatalf("Value %q is not a number: %v", data, err)
	}
	return f
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testGetSet(t *testing.T, s store.IStore) {
	values := [][]byte{
		[]byte("hello"),
		[]byte("a value that is longer than one cipher block of sixteen bytes"),
		[]byte("0123456789abcdef"), // exactly one block
		{0x01, 0xff, 0x7f, 0x80},
	}

	for i, v := range values {
		key := fmt.Sprintf("key-%d", i)
		mustSet(t, s, key, v)

		data, _ := mustGet(t, s, key)
		if !bytes.Equal(data, v) {
			t.Errorf("Get(%q) = %q, expected %q", key, data, v)
		}
	}
}

func testSetFreshKey(t *testing.T, s store.IStore) {
	elem, loaded, err := s.Set("fresh", []byte("value"))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if loaded {
		t.Errorf("Set on a fresh key should report loaded=false")
	}
	if elem.Data != nil || elem.UpdateCount != 0 {
		t.Errorf("Set on a fresh key should return the zero element, got %+v", elem)
	}

	stored, ok, err := s.Get("fresh")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if stored.UpdateCount != 1 {
		t.Errorf("Expected update count 1 for a new key, got %d", stored.UpdateCount)
	}
	if stored.Locked {
		t.Errorf("New elements must not be locked")
	}
	if stored.CreatedAt.IsZero() || !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("Expected CreatedAt == UpdatedAt for a new key, got %v and %v", stored.CreatedAt, stored.UpdatedAt)
	}
	if !stored.ExpireAt.IsZero() {
		t.Errorf("Expected no expiry, got %v", stored.ExpireAt)
	}
	if stored.ContentTag == "" {
		t.Errorf("Expected a content tag")
	}
}

func testSetExisting(t *testing.T, s store.IStore) {
	mustSet(t, s, "key", []byte("v1"))
	first, _, _ := s.Get("key")

	elem, loaded, err := s.Set("key", []byte("v2"))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !loaded {
		t.Errorf("Set on an existing key should report loaded=true")
	}
	if !bytes.Equal(elem.Data, []byte("v2")) {
		t.Errorf("Set should return the new value, got %q", elem.Data)
	}
	if elem.UpdateCount != first.UpdateCount+1 {
		t.Errorf("Expected update count %d, got %d", first.UpdateCount+1, elem.UpdateCount)
	}

	second, _, _ := s.Get("key")
	if !bytes.Equal(second.Data, []byte("v2")) {
		t.Errorf("Expected v2, got %q", second.Data)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func testLockPreventsMutation(t *testing.T, s store.IStore) {
	v1 := []byte("v1")
	mustSet(t, s, "key", v1)
	_, countAfterFirst := mustGet(t, s, "key")

	mustSetLock(t, s, "key", true)

	// the lock itself is not a write
	_, countAfterLock := mustGet(t, s, "key")
	if countAfterLock != countAfterFirst {
		t.Errorf("SetLock must not change the update count (%d -> %d)", countAfterFirst, countAfterLock)
	}

	elem, loaded, err := s.Set("key", []byte("v2"))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !loaded {
		t.Errorf("Set on a locked key should report loaded=true")
	}
	if !bytes.Equal(elem.Data, v1) {
		t.Errorf("Set on a locked key should return the stored value, got %q", elem.Data)
	}
	if !elem.Locked {
		t.Errorf("Returned element should be locked")
	}

	data, countAfterSecond := mustGet(t, s, "key")
	if !bytes.Equal(data, v1) {
		t.Errorf("Locked value changed: expected %q, got %q", v1, data)
	}
	if countAfterSecond != countAfterFirst+1 {
		t.Errorf("Locked Set should touch the element: expected update count %d, got %d", countAfterFirst+1, countAfterSecond)
	}
}

func testUnlock(t *testing.T, s store.IStore) {
	mustSet(t, s, "key", []byte("v1"))
	mustSetLock(t, s, "key", true)
	mustSetLock(t, s, "key", false)

	mustSet(t, s, "key", []byte("v2"))

	elem, _, _ := s.Get("key")
	if elem.Locked {
		t.Errorf("Element should be unlocked")
	}
	if !bytes.Equal(elem.Data, []byte("v2")) {
		t.Errorf("Expected v2 after unlock, got %q", elem.Data)
	}
}

func testAdd(t *testing.T, s store.IStore) {
	mustSet(t, s, "counter", []byte("10"))
	_, before := mustGet(t, s, "counter")

	ok, err := s.Add("counter", 5.0)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !ok {
		t.Fatalf("Add on a numeric value should succeed")
	}

	data, after := mustGet(t, s, "counter")
	if got := parse(t, data); got != 15 {
		t.Errorf("Expected 15, got %v", got)
	}
	if string(data) != "15" {
		t.Errorf("Expected integral result to be rendered as 15, got %q", data)
	}
	if after != before+1 {
		t.Errorf("Add should increment the update count (%d -> %d)", before, after)
	}

	// decrement with fractions
	cases := []struct {
		addend   float64
		expected string
	}{
		{-20, "-5"},
		{0.5, "-4.5"},
		{4.5, "0"},
		{1e3, "1000"},
	}
	for _, c := range cases {
		if ok, err := s.Add("counter", c.addend); err != nil || !ok {
			t.Fatalf("Add(%v) failed: ok=%v err=%v", c.addend, ok, err)
		}
		data, _ := mustGet(t, s, "counter")
		if string(data) != c.expected {
			t.Errorf("After Add(%v) expected %q, got %q", c.addend, c.expected, data)
		}
	}

	// surrounding whitespace is accepted
	mustSet(t, s, "padded", []byte(" 2.5\n"))
	if ok, _ := s.Add("padded", 1); !ok {
		t.Errorf("Add should accept numbers with surrounding whitespace")
	}
	data, _ = mustGet(t, s, "padded")
	if string(data) != "3.5" {
		t.Errorf("Expected 3.5, got %q", data)
	}
}

func testAddNonNumeric(t *testing.T, s store.IStore) {
	inputs := [][]byte{
		[]byte("not-a-number"),
		[]byte(""),
		[]byte("12abc"),
		{0xff, 0xfe, 0xfd}, // invalid utf-8
	}

	for i, v := range inputs {
		key := fmt.Sprintf("key-%d", i)
		mustSet(t, s, key, v)
		_, before := mustGet(t, s, key)

		ok, err := s.Add(key, 1.0)
		if err != nil {
			t.Fatalf("Add(%q) failed: %v", key, err)
		}
		if ok {
			t.Errorf("Add on %q should fail", v)
		}

		data, after := mustGet(t, s, key)
		if !bytes.Equal(data, v) {
			t.Errorf("Failed Add must not change the value: expected %q, got %q", v, data)
		}
		if after != before {
			t.Errorf("Failed Add must not change the update count (%d -> %d)", before, after)
		}
	}
}

func testAddLocked(t *testing.T, s store.IStore) {
	mustSet(t, s, "counter", []byte("10"))
	mustSetLock(t, s, "counter", true)
	_, before := mustGet(t, s, "counter")

	ok, err := s.Add("counter", 5)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ok {
		t.Errorf("Add on a locked key should return false")
	}

	data, after := mustGet(t, s, "counter")
	if string(data) != "10" {
		t.Errorf("Locked value changed: expected 10, got %q", data)
	}
	if after != before+1 {
		t.Errorf("Add on a locked key should touch the element (%d -> %d)", before, after)
	}
}

func testDeleteIgnoresLock(t *testing.T, s store.IStore) {
	mustSet(t, s, "key", []byte("value"))
	mustSetLock(t, s, "key", true)

	if err := s.Delete("key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok, err := s.Get("key"); err != nil || ok {
		t.Errorf("Key should be absent after Delete (ok=%v err=%v)", ok, err)
	}

	// a new element starts unlocked with a fresh counter
	mustSet(t, s, "key", []byte("again"))
	elem, _, _ := s.Get("key")
	if elem.Locked || elem.UpdateCount != 1 {
		t.Errorf("Recreated element should be fresh, got locked=%v count=%d", elem.Locked, elem.UpdateCount)
	}
}

func testUnknownKey(t *testing.T, s store.IStore) {
	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Errorf("Get on a missing key: ok=%v err=%v", ok, err)
	}

	if ok, err := s.SetLock("missing", true); err != nil || ok {
		t.Errorf("SetLock on a missing key: ok=%v err=%v", ok, err)
	}

	if ok, err := s.Add("missing", 1); err != nil || ok {
		t.Errorf("Add on a missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete on a missing key: %v", err)
	}

	// none of the above may create the key
	if _, ok, _ := s.Get("missing"); ok {
		t.Errorf("Operations on a missing key must not create it")
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	// empty key
	mustSet(t, s, "", []byte("empty key"))
	data, _ := mustGet(t, s, "")
	if string(data) != "empty key" {
		t.Errorf("Empty key: expected %q, got %q", "empty key", data)
	}

	// empty value
	mustSet(t, s, "empty-value", []byte{})
	data, _ = mustGet(t, s, "empty-value")
	if len(data) != 0 {
		t.Errorf("Empty value: expected no data, got %q", data)
	}

	// unicode key
	mustSet(t, s, "schlüssel-🔑", []byte("wert"))
	data, _ = mustGet(t, s, "schlüssel-🔑")
	if string(data) != "wert" {
		t.Errorf("Unicode key: expected wert, got %q", data)
	}

	// large value
	large := make([]byte, 1<<20)
	for i := range large {
		large[i] = byte(i%255) + 1
	}
	mustSet(t, s, "large", large)
	data, _ = mustGet(t, s, "large")
	if !bytes.Equal(data, large) {
		t.Errorf("Large value mismatch (got %d bytes, expected %d)", len(data), len(large))
	}

	// modifying returned data must not affect the store
	mustSet(t, s, "copy", []byte("original"))
	elem, _, _ := s.Get("copy")
	elem.Data[0] = 'X'
	data, _ = mustGet(t, s, "copy")
	if string(data) != "original" {
		t.Errorf("Store returned a reference to its data: %q", data)
	}
}

// testConcurrentSet checks per key exclusivity: no lost increments and no spliced values
func testConcurrentSet(t *testing.T, s store.IStore) {
	n := 64

	submitted := make(map[string]bool, n)
	values := make([][]byte, n)
	for i := 0; i < n; i++ {
		// different lengths so a splice of two writes is detectable
		values[i] = bytes.Repeat([]byte(fmt.Sprintf("writer-%02d|", i)), i+1)
		submitted[string(values[i])] = true
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(v []byte) {
			defer wg.Done()
			if _, _, err := s.Set("shared", v); err != nil {
				errs <- err
			}
		}(values[i])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Concurrent Set failed: %v", err)
	}

	data, count := mustGet(t, s, "shared")
	if count != uint64(n) {
		t.Errorf("Expected update count %d, got %d", n, count)
	}
	if !submitted[string(data)] {
		t.Errorf("Final value was never submitted (%d bytes)", len(data))
	}
}

func testConcurrentAdd(t *testing.T, s store.IStore) {
	mustSet(t, s, "counter", []byte("0"))

	workers := 16
	perWorker := 25

	var wg sync.WaitGroup
	var failed sync.Map
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			addend := 1.0
			if w%2 == 1 {
				addend = 2.0
			}
			for i := 0; i < perWorker; i++ {
				if ok, err := s.Add("counter", addend); err != nil || !ok {
					failed.Store(w, errors.Join(err, fmt.Errorf("ok=%v", ok)))
				}
			}
		}(w)
	}
	wg.Wait()

	failed.Range(func(k, v any) bool {
		t.Errorf("Worker %v: Add failed: %v", k, v)
		return true
	})

	expected := float64(workers/2*perWorker*1 + workers/2*perWorker*2)
	data, count := mustGet(t, s, "counter")
	if got := parse(t, data); got != expected {
		t.Errorf("Lost increments: expected %v, got %v", expected, got)
	}
	if count != uint64(1+workers*perWorker) {
		t.Errorf("Expected update count %d, got %d", 1+workers*perWorker, count)
	}
}

func testConcurrentKeys(t *testing.T, s store.IStore) {
	workers := 8
	keysPerWorker := 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", w, i)
				_, _, _ = s.Set(key, []byte(key))
				if i%5 == 0 {
					_, _ = s.SetLock(key, true)
				}
				if i%7 == 0 {
					_ = s.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for i := 0; i < keysPerWorker; i++ {
			key := fmt.Sprintf("worker-%d-key-%d", w, i)
			elem, ok, err := s.Get(key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", key, err)
			}
			if i%7 == 0 {
				if ok {
					t.Errorf("Key %s should be deleted", key)
				}
				continue
			}
			if !ok {
				t.Errorf("Key %s should exist", key)
				continue
			}
			if string(elem.Data) != key {
				t.Errorf("Key %s holds %q", key, elem.Data)
			}
			if elem.Locked != (i%5 == 0) {
				t.Errorf("Key %s: unexpected lock state %v", key, elem.Locked)
			}
		}
	}
}

func testDBInfo(t *testing.T, s store.IStore) {
	for i := 0; i < 10; i++ {
		mustSet(t, s, fmt.Sprintf("key-%d", i), []byte("value"))
	}

	info, err := s.GetDBInfo()
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	if info.Keys != 10 {
		t.Errorf("Expected 10 keys, got %d", info.Keys)
	}
}
