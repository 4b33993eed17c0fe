package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/lucid-kv/lucid/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Compute&Load", func(t *testing.T) {
			testComputeLoad(t, factory())
		})

		t.Run("ComputeAbsent", func(t *testing.T) {
			testComputeAbsent(t, factory())
		})

		t.Run("ComputeUpdate", func(t *testing.T) {
			testComputeUpdate(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Len&Range", func(t *testing.T) {
			testLenRange(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("ConcurrentCompute", func(t *testing.T) {
			testConcurrentCompute(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// put stores data for key, incrementing the update counter of an existing element
func put(database db.KVDB, key string, data []byte) {
	database.Compute(key, func(old db.Element, loaded bool) (db.Element, bool) {
		elem := old
		elem.Data = append([]byte(nil), data...)
		elem.UpdateCount++
		return elem, false
	})
}

// load returns the data for key
func load(database db.KVDB, key string) ([]byte, bool) {
	elem, ok := database.Load(key)
	return elem.Data, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testComputeLoad(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	put(database, testKey, testValue1)

	result, exists := load(database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Compute", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	put(database, testKey, testValue2)

	elem, exists := database.Load(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Compute", testKey)
	}
	if !bytes.Equal(elem.Data, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, elem.Data)
	}
	if elem.UpdateCount != 2 {
		t.Errorf("Expected update count 2, got %d", elem.UpdateCount)
	}

	if _, exists = load(database, "nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// Load must return a copy
	retrieved, _ := load(database, testKey)
	retrieved[0] = 'X'

	original, _ := load(database, testKey)
	if bytes.Equal(retrieved, original) {
		t.Errorf("Load should return a copy, not a reference to the stored value")
	}

	// Compute must return a copy
	returned, ok := database.Compute(testKey, func(old db.Element, loaded bool) (db.Element, bool) {
		return old, false
	})
	if !ok {
		t.Fatalf("Compute should report the key as present")
	}
	returned.Data[0] = 'Y'
	original, _ = load(database, testKey)
	if original[0] == 'Y' {
		t.Errorf("Compute should return a copy, not a reference to the stored value")
	}
}

func testComputeAbsent(t *testing.T, database db.KVDB) {
	defer database.Close()

	called := false
	elem, ok := database.Compute("absent", func(old db.Element, loaded bool) (db.Element, bool) {
		called = true
		if loaded {
			t.Errorf("Key should not be loaded")
		}
		return old, true // keep absent
	})

	if !called {
		t.Errorf("Compute should call the function for absent keys")
	}
	if ok {
		t.Errorf("Compute should report the key as absent, got %+v", elem)
	}
	if _, exists := database.Load("absent"); exists {
		t.Errorf("Returning delete=true for an absent key must not create it")
	}
	if database.Len() != 0 {
		t.Errorf("Expected empty database, got %d keys", database.Len())
	}
}

func testComputeUpdate(t *testing.T, database db.KVDB) {
	defer database.Close()

	put(database, "key", []byte("value"))

	// update metadata only
	database.Compute("key", func(old db.Element, loaded bool) (db.Element, bool) {
		if !loaded {
			t.Errorf("Key should be loaded")
		}
		old.Locked = true
		return old, false
	})

	elem, _ := database.Load("key")
	if !elem.Locked {
		t.Errorf("Expected element to be locked")
	}
	if !bytes.Equal(elem.Data, []byte("value")) {
		t.Errorf("Data should be unchanged, got %s", elem.Data)
	}

	// delete through compute
	_, ok := database.Compute("key", func(old db.Element, loaded bool) (db.Element, bool) {
		return old, true
	})
	if ok {
		t.Errorf("Compute should report the key as deleted")
	}
	if _, exists := database.Load("key"); exists {
		t.Errorf("Key should be deleted")
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	put(database, "key", []byte("value"))
	database.Delete("key")

	if _, exists := database.Load("key"); exists {
		t.Errorf("Key should not exist after Delete")
	}

	// deleting a missing key is a no-op
	database.Delete("key")
	database.Delete("never-existed")

	if database.Len() != 0 {
		t.Errorf("Expected empty database, got %d keys", database.Len())
	}
}

func testLenRange(t *testing.T, database db.KVDB) {
	defer database.Close()

	numKeys := 250
	for i := 0; i < numKeys; i++ {
		put(database, fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)))
	}

	if database.Len() != numKeys {
		t.Errorf("Expected %d keys, got %d", numKeys, database.Len())
	}

	seen := make(map[string]bool)
	database.Range(func(key string, elem db.Element) bool {
		if seen[key] {
			t.Errorf("Key %s visited twice", key)
		}
		seen[key] = true
		expected := []byte("value-" + key[len("key-"):])
		if !bytes.Equal(elem.Data, expected) {
			t.Errorf("Expected %s for key %s, got %s", expected, key, elem.Data)
		}
		return true
	})
	if len(seen) != numKeys {
		t.Errorf("Range visited %d keys, expected %d", len(seen), numKeys)
	}

	// stopping early
	visited := 0
	database.Range(func(string, db.Element) bool {
		visited++
		return visited < 10
	})
	if visited != 10 {
		t.Errorf("Range should stop after fn returns false, visited %d", visited)
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	emptyKeyValue := []byte("value for empty key")
	put(database, "", emptyKeyValue)

	result, exists := load(database, "")
	if !exists {
		t.Errorf("Empty key not found after Compute")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	put(database, "nil-value-key", nil)
	result, exists = load(database, "nil-value-key")
	if !exists {
		t.Errorf("Key for nil value not found after Compute")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	largeKey := string(make([]byte, 1000))
	largeKeyValue := []byte("value for large key")
	put(database, largeKey, largeKeyValue)

	result, exists = load(database, largeKey)
	if !exists {
		t.Errorf("Large key not found after Compute")
	} else if !bytes.Equal(result, largeKeyValue) {
		t.Errorf("Value mismatch for large key")
	}

	largeValue := make([]byte, 10*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	put(database, "large-value-key", largeValue)

	result, exists = load(database, "large-value-key")
	if !exists {
		t.Errorf("Key for large value not found after Compute")
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch (got %d bytes, expected %d)", len(result), len(largeValue))
	}

	// iv is copied as well
	database.Compute("iv-key", func(db.Element, bool) (db.Element, bool) {
		return db.Element{Data: []byte("x"), IV: []byte{1, 2, 3}}, false
	})
	elem, _ := database.Load("iv-key")
	elem.IV[0] = 9
	again, _ := database.Load("iv-key")
	if again.IV[0] != 1 {
		t.Errorf("Load should deep copy the iv")
	}
}

func testManyKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	prefix := "many-keys-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		put(database, fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := load(database, key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		database.Delete(fmt.Sprintf("%s%d", prefix, i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists := load(database, key)

		if i%2 == 0 && exists {
			t.Errorf("Key %s should be deleted", key)
		} else if i%2 != 0 && !exists {
			t.Errorf("Key %s should still exist", key)
		}
	}

	if database.Len() != numKeys/2 {
		t.Errorf("Expected %d keys, got %d", numKeys/2, database.Len())
	}
}

// testConcurrentCompute checks that read/modify/write cycles of one key never interleave
func testConcurrentCompute(t *testing.T, database db.KVDB) {
	defer database.Close()

	numWorkers := 16
	perWorker := 500

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// one shared hot key and one key per worker
				put(database, "hot-key", []byte(fmt.Sprintf("worker-%d-%d", workerId, i)))
				put(database, fmt.Sprintf("worker-key-%d", workerId), []byte("x"))
			}
		}(w)
	}
	wg.Wait()

	elem, ok := database.Load("hot-key")
	if !ok {
		t.Fatalf("Hot key should exist")
	}
	if elem.UpdateCount != uint64(numWorkers*perWorker) {
		t.Errorf("Lost updates: expected update count %d, got %d", numWorkers*perWorker, elem.UpdateCount)
	}

	for w := 0; w < numWorkers; w++ {
		elem, _ := database.Load(fmt.Sprintf("worker-key-%d", w))
		if elem.UpdateCount != uint64(perWorker) {
			t.Errorf("Worker key %d: expected update count %d, got %d", w, perWorker, elem.UpdateCount)
		}
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		key := fmt.Sprintf("key-%d", i)
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		}

		var value []byte
		if op == "set" {
			valueSize := 64
			if i%10 == 0 {
				valueSize = 1024
			}
			value = make([]byte, valueSize)
			for j := range value {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	numWorkers := 8
	opsPerWorker := numOperations / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			for i := start; i < start+opsPerWorker; i++ {
				op := operations[i]
				switch op.op {
				case "set":
					put(database, op.key, op.value)
				case "get":
					database.Load(op.key)
				case "delete":
					database.Delete(op.key)
				}
			}
		}(w)
	}
	wg.Wait()

	// every surviving element must hold a value that was written for its key
	written := make(map[string][][]byte)
	for _, op := range operations {
		if op.op == "set" {
			written[op.key] = append(written[op.key], op.value)
		}
	}

	database.Range(func(key string, elem db.Element) bool {
		for _, v := range written[key] {
			if bytes.Equal(v, elem.Data) {
				return true
			}
		}
		t.Errorf("Key %s holds a value that was never written for it", key)
		return true
	})
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 100; i++ {
		put(database, fmt.Sprintf("key-%d", i), make([]byte, 100))
	}

	info := database.GetInfo()
	if info.Keys != 100 {
		t.Errorf("Expected 100 keys in info, got %d", info.Keys)
	}
	if info.SizeBytes < 100*100 {
		t.Errorf("Estimated size %d is smaller than the stored data", info.SizeBytes)
	}
	if info.DbType == "" {
		t.Errorf("Expected implementation type to be set")
	}
}
