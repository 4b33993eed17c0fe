// Package serializer converts common.Message values to bytes and back for the
// lucid RPC layer. Client and server must use the same implementation; the
// format is selected with the --serializer flag.
//
// Implementations:
//
//   - NewBinarySerializer: compact custom format. A 3 byte header holds the
//     message type and a 16 bit flag word marking which fields follow. Boolean
//     fields live in the flag word alone and absent fields cost nothing, so a
//     Get request is the header plus the length prefixed key.
//
//   - NewJSONSerializer: encoding/json with message types written by name
//     ("get", "add", ...). Useful with curl against the HTTP transport.
//
//   - NewGOBSerializer: encoding/gob. Every message carries its own type
//     information, which makes it the largest and slowest of the three.
//
// Deserialize always resets the target message first, so a message value can
// be reused across calls.
//
// Run the benchmarks with
//
//	go test -bench . ./rpc/serializer
//
// to compare speed and payload size (reported as bytes/msg) for typical store
// requests and responses.
//
// Thread Safety:
//
//	All serializers are safe for concurrent use across multiple goroutines.
package serializer
