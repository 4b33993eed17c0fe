package maple

import (
	"runtime"
	"sync"

	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/db/engines/maple/internal"
	"github.com/lucid-kv/lucid/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	samplesPerShard = 100 // elements inspected per shard by GetInfo
	entryOverhead   = 96  // rough per element overhead (slice headers, timestamps, map entry)
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements db.KVDB with a fixed number of independent shards
type mapleImpl struct {
	seed   uint64            // Seed for hash function
	shards []*internal.Shard // Array of shards
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (<= 0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	numShards := opts.NumShards
	if numShards <= 0 {
		numShards = runtime.NumCPU()
	}

	shards := make([]*internal.Shard, numShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}

	return &mapleImpl{
		seed:   util.GenerateSeed(),
		shards: shards,
	}
}

// shardFor returns the shard responsible for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) shardFor(key string) *internal.Shard {
	return maple.shards[util.ShardIndex(util.HashString(key, maple.seed), len(maple.shards))]
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Compute atomically reads, modifies and writes the element for key.
// The old element handed to fn is the stored one, fn must treat its slices as read-only
// and return fresh slices for new data.
//
// Thread-safety: Calls for the same key are serialized by the shard map; calls for
// different keys only share a lock if they land in the same hash bucket.
func (maple *mapleImpl) Compute(key string, fn db.ComputeFunc) (db.Element, bool) {
	shard := maple.shardFor(key)

	elem, ok := shard.Data.Compute(key, func(old db.Element, loaded bool) (db.Element, bool) {
		return fn(old, loaded)
	})
	if !ok {
		return db.Element{}, false
	}
	return elem.Clone(), true
}

// Delete removes the element for key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string) {
	maple.shardFor(key).Data.Delete(key)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Load returns a copy of the element for key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Load(key string) (db.Element, bool) {
	elem, ok := maple.shardFor(key).Data.Load(key)
	if !ok {
		return db.Element{}, false
	}
	return elem.Clone(), true
}

// Len returns the number of keys over all shards.
func (maple *mapleImpl) Len() int {
	n := 0
	for _, shard := range maple.shards {
		n += shard.Data.Size()
	}
	return n
}

// Range calls fn with a copy of every element until fn returns false.
func (maple *mapleImpl) Range(fn func(key string, elem db.Element) bool) {
	for _, shard := range maple.shards {
		stopped := false
		shard.Data.Range(func(key string, elem db.Element) bool {
			if !fn(key, elem.Clone()) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database.
// Sizes are estimated from a sample of each shard.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		samples    []float64
		shardSizes = make([]float64, len(maple.shards))
	)

	// concurrently collect samples from all shards
	wg.Add(len(maple.shards))
	for shardIndex, shard := range maple.shards {
		go func(i int, s *internal.Shard) {
			defer wg.Done()

			local := make([]float64, 0, samplesPerShard)
			s.Data.Range(func(key string, elem db.Element) bool {
				size := len(key) + len(elem.Data) + len(elem.IV) + len(elem.ContentTag) + entryOverhead
				local = append(local, float64(size))
				return len(local) < samplesPerShard
			})

			mu.Lock()
			defer mu.Unlock()
			samples = append(samples, local...)
			shardSizes[i] = float64(s.Data.Size())
		}(shardIndex, shard)
	}
	wg.Wait()

	keys := 0
	for _, size := range shardSizes {
		keys += int(size)
	}

	// weighted estimate (60% median, 40% average) to dampen single huge values
	sizeStats := util.NewStats(samples)
	perElement := sizeStats.Median*0.6 + sizeStats.Mean*0.4

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		ElementSize       util.Stats             `json:"element_size"`
		Info              string                 `json:"info"`
	}{
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		ElementSize:       sizeStats,
		Info:              "SizeBytes and ElementSize are estimates based on a sample of each shard.",
	}

	return db.DatabaseInfo{
		SizeBytes: int(perElement * float64(keys)),
		Keys:      keys,
		DbType:    db.ImplMaple,
		Metadata:  meta,
	}
}

// Close drops all elements. The database must not be used afterwards.
func (maple *mapleImpl) Close() error {
	for _, shard := range maple.shards {
		shard.Data.Clear()
	}
	return nil
}
