// Package common provides the data structures shared by the lucid server,
// the RPC client and the CLI.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation installed into dragonboat's logger facade
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, used for both
//     requests and responses. Element metadata travels as plain fields with
//     timestamps in unix nanoseconds. The iv of an element is never sent.
//     Store errors keep their RetCode across the wire.
//
//   - MessageType: Enumeration of all supported operations (get, set, delete,
//     setLock, add, info) and the control messages.
//
//   - ServerConfig: The explicit server configuration value (shards, endpoint,
//     encryption, metrics, logging). It is validated once and then only read.
//     Its String method never prints key material.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation for dragonboat's logger facade,
//     giving every package a consistently formatted named logger.
package common
