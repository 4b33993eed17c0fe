package serializer

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/rpc/common"
)

// benchmarkMessages are the requests and responses a store client sends and
// receives most often, built with the same factories the client and server use
func benchmarkMessages() map[string]*common.Message {
	now := time.Unix(1_700_000_000, 123_456_789)
	elem := func(size int) db.Element {
		return db.Element{
			Data:        bytes.Repeat([]byte("x"), size),
			ContentTag:  "text/plain; charset=utf-8",
			CreatedAt:   now.Add(-time.Hour),
			UpdatedAt:   now,
			UpdateCount: 42,
		}
	}

	return map[string]*common.Message{
		"GetRequest":       common.NewGetRequest("user:1234:session"),
		"GetResponse":      common.NewGetResponse(elem(32), true, nil),
		"GetResponse16KB":  common.NewGetResponse(elem(16*1024), true, nil),
		"GetMiss":          common.NewGetResponse(db.Element{}, false, nil),
		"SetRequest":       common.NewSetRequest("user:1234:session", []byte("medium length value for testing serialization")),
		"SetRequest16KB":   common.NewSetRequest("blob", make([]byte, 16*1024)),
		"SetFreshResponse": common.NewSetResponse(db.Element{}, false, nil),
		"AddRequest":       common.NewAddRequest("counter", -2.5),
		"AddResponse":      common.NewAddResponse(true, nil),
		"SetLockRequest":   common.NewSetLockRequest("counter", true),
		"CryptoError":      common.NewGetResponse(db.Element{}, false, store.NewError(store.RetCCryptoError, "decrypting element \"counter\": invalid ciphertext length")),
	}
}

// sortedNames returns the keys of m in a stable order, so benchmark output is comparable between runs
func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BenchmarkRoundTrip serializes and deserializes every benchmark message with
// every serializer and reports the payload size
func BenchmarkRoundTrip(b *testing.B) {
	messages := benchmarkMessages()

	for _, serName := range sortedNames(testSerializers) {
		for _, msgName := range sortedNames(messages) {
			msg := *messages[msgName]
			s := testSerializers[serName]()

			b.Run(serName+"/"+msgName, func(b *testing.B) {
				data, err := s.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}
				b.ReportMetric(float64(len(data)), "bytes/msg")
				b.ReportAllocs()
				b.ResetTimer()

				var out common.Message
				for i := 0; i < b.N; i++ {
					data, err := s.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
					if err := s.Deserialize(data, &out); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize measures decoding alone, which is what the server does
// for every incoming request
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()

	for _, serName := range sortedNames(testSerializers) {
		for _, msgName := range []string{"GetRequest", "SetRequest", "GetResponse"} {
			s := testSerializers[serName]()
			data, err := s.Serialize(*messages[msgName])
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, serName, err)
			}

			b.Run(serName+"/"+msgName, func(b *testing.B) {
				var out common.Message
				for i := 0; i < b.N; i++ {
					if err := s.Deserialize(data, &out); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}
