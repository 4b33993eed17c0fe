package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// --------------------------------------------------------------------------
// Seeds
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for the shard hash.
// A per-instance seed keeps the key distribution of two databases independent.
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// the clock is good enough to spread keys, the seed is not a secret
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString hashes a string with the given seed using FNV-1a.
// It is fast, allocation free and spreads short keys well enough for shard selection.
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

// ShardIndex maps a hash onto one of n shards.
// The low 7 bits are dropped because FNV-1a mixes the higher bits better for short keys.
func ShardIndex(hash uint64, n int) int {
	return int((hash >> 7) % uint64(n))
}
