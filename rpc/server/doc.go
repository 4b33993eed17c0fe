// Package server implements the RPC server of lucid. It hosts one in-memory
// store per configured shard and routes incoming requests to it.
//
// The package focuses on:
//   - Server-side RPC request handling for store operations
//   - Adapter pattern to decouple the store from the RPC mechanisms
//   - One independent memory store per shard id, all sharing one value cipher
//   - An optional Prometheus endpoint exposing the metrics of every store
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for key-value
//     store operations, translating RPC requests to store.IStore method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards:          []uint64{100, 200},
//	  Endpoint:        "0.0.0.0:8080",
//	  MetricsEndpoint: "0.0.0.0:9090",
//	  TimeoutSecond:   5,
//	  LogLevel:        "info",
//	  Encryption: common.EncryptionConfig{
//	    Enabled: true,
//	    Key:     "000102030405060708090a0b0c0d0e0f",
//	  },
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Serve blocks until Close is called
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Requests for a shard id that is not configured are answered with an error
// response. Store errors keep their return code on the way to the client.
//
// Metrics:
//
//	When MetricsEndpoint is set, GET /metrics returns the counters, gauges and
//	histograms of all shards in Prometheus text format, followed by the Go
//	runtime and process metrics.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	Serve must be called only once.
package server
