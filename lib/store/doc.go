// Package store defines the capability contract of lucid (IStore) together with
// the structured error type shared by every implementation.
//
// The package focuses on:
//   - A unified interface (IStore) that the server, the RPC client and the CLI
//     use without knowing whether the store is local or remote
//   - Pluggable storage backends through the DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: Get, Set, Delete, SetLock, Add and GetDBInfo. Expected
//     outcomes such as a missing key, a locked element or a value that is not a
//     number are reported as booleans. Errors are reserved for failures.
//
//   - Error System: A structured error type carrying a RetCode and a message.
//     Callers switch on the code (for example RetCCryptoError) instead of
//     matching message strings.
//
//   - DBFactory: A function type that creates the underlying db.KVDB, so the
//     same store code runs on any engine.
//
// Implementations:
//
//   - Memory Store (mstore): the in-process store with optional value
//     encryption, per key locks and atomic numeric add.
//     Available in the "github.com/lucid-kv/lucid/lib/store/mstore" package.
//
//   - RPC Store (rpc/client): the same contract served by a remote lucid
//     server. Available in the "github.com/lucid-kv/lucid/rpc/client" package.
//
// The behavioural test suite in lib/store/testing runs against both.
package store
