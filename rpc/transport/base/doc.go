// Package base provides the framed socket transport shared by the tcp and unix
// transports. It implements the RPC client and server independent of the
// network protocol, which is plugged in through small connector interfaces.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Frame-based message protocol with shardID and requestID tracking
//   - Multiplexing many concurrent requests over few connections
//   - Retries with exponential backoff and automatic reconnects
//
// Frame Format (big endian):
//
//	shardId u64 | requestId u64 | length u32 | payload
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Manages a pool of connections (optionally several per
//     endpoint) with round-robin selection. Each connection has one reader
//     goroutine that hands responses to the waiting requests by request id.
//     A broken connection fails its pending requests and is re-established in
//     the background.
//
//   - serverTransport: Accepts connections and processes the requests of each
//     connection with a bounded number of worker goroutines. Responses carry the
//     request id of their request, so they may be written out of order.
//
// Performance Optimizations:
//
//   - Buffer Pooling: The server reuses request buffers through a sync.Pool.
//
//   - Frame Batching: Header and payload are written with net.Buffers in a
//     single write operation.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes to a connection are serialized
//	with a mutex, pending requests live in a concurrent map.
package base
