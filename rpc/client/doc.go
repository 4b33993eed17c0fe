// Package client implements the RPC client of lucid. It provides an
// implementation of the store.IStore interface that forwards every operation
// to a remote server.
//
// The package focuses on:
//   - Transparent RPC access to a remote store
//   - Integration with the transport and serialization layers
//   - Conversion of error responses back into *store.Error values
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create store client
//	s, _ := client.NewRPCStore(1, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//
//	// Use the store
//	s.Set("counter", []byte("41"))
//	s.Add("counter", 1)
//	elem, exists, _ := s.Get("counter")
//
// Elements returned by the client never carry the iv of the stored value; it
// does not leave the server.
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
