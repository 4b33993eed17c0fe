// Package rpc provides the remote access layer of lucid. It makes the
// in-memory store reachable over the network.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementing store.IStore, allowing applications to
//     use a remote store transparently.
//
//   - server: RPC server hosting one memory store per shard and handling
//     incoming requests through store adapters.
package rpc
