// Package util provides helpers for implementations of the db.KVDB interface.
//
// The package contains:
//   - functions: seeded FNV-1a hashing and shard selection
//   - statistics: summary statistics used to report value sizes and how evenly
//     keys are spread across shards
package util
