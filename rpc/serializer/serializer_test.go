package serializer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Set request
		{
			MsgType: common.MsgTKVSet,
			Key:     "test-key",
			Value:   []byte("test-value"),
		},

		// Get response with element metadata
		{
			MsgType:     common.MsgTKVGet,
			Value:       []byte("test-value"),
			Locked:      true,
			ContentTag:  "text/plain; charset=utf-8",
			CreatedAt:   1_700_000_000_000_000_000,
			UpdatedAt:   1_700_000_000_123_456_789,
			UpdateCount: 42,
			Ok:          true,
		},

		// Add request with a negative fraction
		{
			MsgType: common.MsgTKVAdd,
			Key:     "counter",
			Addend:  -0.25,
		},

		// SetLock request
		{
			MsgType: common.MsgTKVSetLock,
			Key:     "locked-key",
			Locked:  true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
			ErrCode: store.RetCCryptoError,
		},

		// Message with all fields filled
		{
			MsgType:     common.MsgTCustom,
			Key:         "test-key",
			Value:       []byte("test-value"),
			Addend:      1e9,
			Locked:      true,
			ContentTag:  "application/json",
			CreatedAt:   1,
			UpdatedAt:   2,
			ExpireAt:    3,
			UpdateCount: 4,
			Ok:          true,
			Err:         "an error",
			ErrCode:     store.RetCInternalError,
			Meta:        []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeResetsMessage checks that fields of a reused message do not leak into the next one
func TestDeserializeResetsMessage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTKVDelete, Key: "k"})
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			result := common.Message{Value: []byte("stale"), Ok: true, Err: "stale", UpdateCount: 9}
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if result.Value != nil || result.Ok || result.Err != "" || result.UpdateCount != 0 {
				t.Errorf("Stale fields survived deserialization: %+v", result)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTKVSet,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
		{
			name: "Booleans without other fields",
			msg: common.Message{
				MsgType: common.MsgTKVGet,
				Ok:      true,
				Locked:  true,
			},
		},
		{
			name: "Negative timestamps",
			msg: common.Message{
				MsgType:   common.MsgTKVGet,
				CreatedAt: -1,
				UpdatedAt: -1_000_000,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// the binary format keeps nil and empty slices apart
			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Mismatch after round trip:\nOriginal: %+v\nResult: %+v", tc.msg, result)
			}
		})
	}
}

// TestBinarySize checks that absent fields cost nothing
func TestBinarySize(t *testing.T) {
	serializer := NewBinarySerializer()

	data, _ := serializer.Serialize(common.Message{MsgType: common.MsgTKVSetLock, Locked: true, Ok: true})
	if len(data) != headerSize {
		t.Errorf("Expected %d bytes for a message with only flags, got %d", headerSize, len(data))
	}

	msg := common.Message{MsgType: common.MsgTKVGet, Key: "key", Value: []byte("value"), UpdateCount: 1}
	data, _ = serializer.Serialize(msg)
	expected := headerSize + (4 + 3) + (4 + 5) + 8
	if len(data) != expected {
		t.Errorf("Expected %d bytes, got %d", expected, len(data))
	}
	if !bytes.Contains(data, []byte("value")) {
		t.Errorf("Value bytes not found in encoding")
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type and half of the flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{1, 0, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, 0, 2, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Truncated update count",
			data:        []byte{1, 1, 0, 0, 0, 0}, // update count flag with only 3 bytes
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestInvalidJSONData checks that unknown message types are rejected
func TestInvalidJSONData(t *testing.T) {
	serializer := NewJSONSerializer()

	var msg common.Message
	if err := serializer.Deserialize([]byte(`{"msg_type":"acquire"}`), &msg); err == nil {
		t.Errorf("Expected error for unknown message type")
	}
	if err := serializer.Deserialize([]byte(`{"msg_type":"add","key":"k","addend":2.5}`), &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if msg.MsgType != common.MsgTKVAdd || msg.Addend != 2.5 {
		t.Errorf("Unexpected message: %+v", msg)
	}
}
