// Package db defines the stored record (Element) and the raw concurrent
// container (KVDB) that stores are built on.
//
// The package focuses on:
//   - The Element data model: value bytes plus content tag, timestamps, update
//     counter, lock flag and the optional initialization vector
//   - A minimal container interface whose only write primitive is an atomic
//     per-key read/modify/write (Compute)
//   - Standardized metadata reporting (DatabaseInfo)
//
// Key Components:
//
//   - Element: Pure data. Whether Data holds plaintext or ciphertext is decided by
//     the store, the container never looks inside.
//
//   - KVDB Interface: Compute, Delete, Load, Len, Range, GetInfo, Close.
//     Every store operation (set, lock, increment, ...) is expressed as a single
//     Compute call, which gives per-key atomicity without the container having to
//     know the operation.
//
//   - Database Information: DatabaseInfo reports the number of keys, an estimated
//     size and implementation-specific metadata. Sizes are estimates.
//
// Concurrency Contract:
//   - Two Compute calls for the same key never interleave.
//   - Compute calls for different keys must not contend on a global lock.
//   - Load and Range return deep copies, callers may modify them freely.
//
// Related Packages:
//
// The engines/maple package (github.com/lucid-kv/lucid/lib/db/engines/maple)
// provides a sharded in-memory implementation of the KVDB interface.
//
// The util package (github.com/lucid-kv/lucid/lib/db/util) provides hashing and
// statistics helpers for implementations.
//
// The testing package (github.com/lucid-kv/lucid/lib/db/testing) provides
// standardized tests and benchmarks for any db.KVDB.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
