// Package maple implements the db.KVDB interface as a sharded, purely in-memory
// container. It is the engine behind the memory store.
//
// Key Components:
//
//   - mapleImpl: Holds a fixed number of shards and a random per-instance hash
//     seed. Every operation hashes the key once to find its shard and then works
//     on that shard only.
//
//   - Shard: A partition of the key space backed by an xsync.MapOf. The map
//     locks individual hash buckets, so two goroutines only wait for each other
//     when they touch the same bucket of the same shard.
//
// Per-Key Atomicity:
//
//	Compute is built on xsync.MapOf.Compute. The callback runs while the bucket
//	holding the key is locked, so the read/modify/write cycle of one key can
//	never interleave with another Compute, Load or Delete of the same key. The
//	store builds all its mutating operations on this primitive.
//
// Sharding Strategy:
//
//	Keys are hashed with seeded FNV-1a (util.HashString). The hash is right
//	shifted by 7 bits before taking the modulo, the higher bits of FNV-1a are
//	better mixed for short keys.
//
// Copy Semantics:
//
//	Load, Range and the result of Compute are deep copies. The element handed
//	to a ComputeFunc is the stored one and must be treated as read-only.
//
// Not Supported:
//
//	The engine keeps no write index, runs no garbage collector and has no
//	persistence. Elements live until they are deleted or the process ends.
package maple
