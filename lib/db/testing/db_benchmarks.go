package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lucid-kv/lucid/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Compute", func(b *testing.B) {
		benchmarkCompute(b, factory())
	})

	b.Run("ComputeExisting", func(b *testing.B) {
		benchmarkComputeExisting(b, factory())
	})

	b.Run("ComputeHotKey", func(b *testing.B) {
		benchmarkComputeHotKey(b, factory())
	})

	b.Run("ComputeLargeValue", func(b *testing.B) {
		benchmarkComputeLargeValue(b, factory())
	})

	b.Run("Load", func(b *testing.B) {
		benchmarkLoad(b, factory())
	})

	b.Run("Load(not)", func(b *testing.B) {
		benchmarkLoadNot(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prefill stores numKeys keys of the form test-key-<i>
func prefill(database db.KVDB, numKeys int) {
	for i := 0; i < numKeys; i++ {
		put(database, fmt.Sprintf("test-key-%d", i), []byte(fmt.Sprintf("test-value-%d", i)))
	}
}

// Benchmark for Compute inserting new keys
func benchmarkCompute(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	var worker int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		id := atomic.AddInt64(&worker, 1)
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d-%d", id, counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			put(database, key, value)
			counter++
		}
	})
}

// Benchmark for Compute on existing keys
func benchmarkComputeExisting(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			put(database, key, value)
			counter++
		}
	})
}

// Benchmark for Compute with all goroutines contending on one key
func benchmarkComputeHotKey(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	value := []byte("hot-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			put(database, "hot-key", value)
		}
	})
}

// Benchmark for Compute with large values
func benchmarkComputeLargeValue(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	largeValue := make([]byte, 1*1024*1024) // 1MB

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			// bounded key space keeps the memory footprint stable
			key := fmt.Sprintf("test-key-%d", counter%64)
			put(database, key, largeValue)
			counter++
		}
	})
}

// Parallel benchmarking for Load operation
func benchmarkLoad(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			database.Load(key)
			counter++
		}
	})
}

// Benchmark for Load on keys that do not exist
func benchmarkLoadNot(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Load(fmt.Sprintf("missing-key-%d", counter))
			counter++
		}
	})
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	numKeys := b.N
	prefill(database, numKeys)

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys
			database.Delete(fmt.Sprintf("test-key-%d", idx))
		}
	})
}

// Benchmark for a realistic mix of reads, writes and deletes
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		value := []byte("mixed-value")
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", rnd.Intn(numKeys))
			switch r := rnd.Intn(100); {
			case r < 70:
				database.Load(key)
			case r < 95:
				put(database, key, value)
			default:
				database.Delete(key)
			}
		}
	})
}
