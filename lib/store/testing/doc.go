// Package testing provides a behavioural test suite and benchmarks for
// implementations of the store.IStore interface.
//
// The same suite is run against the in-memory store (with and without
// encryption) and against the RPC client talking to a server, so every
// implementation is held to identical semantics.
//
// Example usage:
//
//	storetesting.RunStoreTests(t, "MemoryStore", func() store.IStore {
//		return mstore.NewMemoryStore(factory, nil)
//	})
package testing
