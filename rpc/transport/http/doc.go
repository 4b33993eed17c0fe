// Package http implements an HTTP-based transport layer for the lucid RPC
// system. Every request is a POST of the serialized message to /{shardId};
// the response body is the serialized response message.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport with round-robin
//     selection across the configured endpoints and retries with exponential
//     backoff. A fresh request is built for every attempt.
//
//   - httpServerTransport: Implements IRPCServerTransport on net/http's
//     ServeMux, routing by the shard id in the path. With log level debug every
//     request is logged with status and duration.
//
// Thread Safety:
//
//	The client transport is thread-safe after Connect. It uses an atomic
//	counter for the round-robin selection.
package http
