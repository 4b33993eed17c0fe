package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
//
// Timestamps travel as unix nanoseconds (0 = unset). The iv of an element never
// leaves the server.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key    string  `json:"key,omitempty"`    // Used for: Get, Set, Delete, SetLock, Add
	Value  []byte  `json:"value,omitempty"`  // Used for: Set (request), Get and Set (response)
	Addend float64 `json:"addend,omitempty"` // Used for: Add (request)
	Locked bool    `json:"locked,omitempty"` // Used for: SetLock (request), Get and Set (response)

	// Element metadata (response only)
	ContentTag  string `json:"content_tag,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
	ExpireAt    int64  `json:"expire_at,omitempty"`
	UpdateCount uint64 `json:"update_count,omitempty"`

	// Response only fields
	Ok      bool          `json:"ok,omitempty"`       // Used for: Get, Set, SetLock, Add responses
	Err     string        `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message
	ErrCode store.RetCode `json:"err_code,omitempty"` // Return code of a store error

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info (response), Custom
}

// --------------------------------------------------------------------------
// Element conversion
// --------------------------------------------------------------------------

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// setElement copies the element (without iv) into the message
func (m *Message) setElement(elem db.Element) {
	m.Value = elem.Data
	m.Locked = elem.Locked
	m.ContentTag = elem.ContentTag
	m.CreatedAt = toUnixNano(elem.CreatedAt)
	m.UpdatedAt = toUnixNano(elem.UpdatedAt)
	m.ExpireAt = toUnixNano(elem.ExpireAt)
	m.UpdateCount = elem.UpdateCount
}

// setError stores err in the message, keeping the return code of store errors
func (m *Message) setError(err error) {
	if err == nil {
		return
	}
	m.Err = err.Error()
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		m.ErrCode = storeErr.Code
		m.Err = storeErr.Msg
	} else {
		m.ErrCode = store.RetCInternalError
	}
}

// ElementFromMessage rebuilds the element carried by a response.
// The iv is never transmitted, so the returned element has none.
func ElementFromMessage(m *Message) db.Element {
	return db.Element{
		Data:        m.Value,
		ContentTag:  m.ContentTag,
		CreatedAt:   fromUnixNano(m.CreatedAt),
		UpdatedAt:   fromUnixNano(m.UpdatedAt),
		ExpireAt:    fromUnixNano(m.ExpireAt),
		UpdateCount: m.UpdateCount,
		Locked:      m.Locked,
	}
}

// AsError returns the error carried by a response (nil if there is none).
// Store errors are returned as *store.Error with their original code.
func (m *Message) AsError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	code := m.ErrCode
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(elem db.Element, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
	}
	if ok {
		msg.setElement(elem)
	}
	msg.setError(err)
	return msg
}

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewSetResponse creates a new Set response. Ok carries the loaded flag.
func NewSetResponse(elem db.Element, loaded bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVSet,
		Ok:      loaded,
	}
	if loaded {
		msg.setElement(elem)
	}
	msg.setError(err)
	return msg
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTKVDelete,
	}
	msg.setError(err)
	return msg
}

// NewSetLockRequest creates a new SetLock request
func NewSetLockRequest(key string, locked bool) *Message {
	return &Message{
		MsgType: MsgTKVSetLock,
		Key:     key,
		Locked:  locked,
	}
}

// NewSetLockResponse creates a new SetLock response
func NewSetLockResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVSetLock,
		Ok:      ok,
	}
	msg.setError(err)
	return msg
}

// NewAddRequest creates a new Add request
func NewAddRequest(key string, addend float64) *Message {
	return &Message{
		MsgType: MsgTKVAdd,
		Key:     key,
		Addend:  addend,
	}
}

// NewAddResponse creates a new Add response
func NewAddResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVAdd,
		Ok:      ok,
	}
	msg.setError(err)
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTKVInfo,
	}
}

// NewInfoResponse creates a new Info response, the info is JSON encoded in Meta
func NewInfoResponse(info db.DatabaseInfo, err error) *Message {
	msg := &Message{
		MsgType: MsgTKVInfo,
	}
	if err != nil {
		msg.setError(err)
		return msg
	}
	meta, err := json.Marshal(info)
	if err != nil {
		msg.setError(fmt.Errorf("encoding db info: %w", err))
		return msg
	}
	msg.Meta = meta
	return msg
}

// InfoFromMessage decodes the database info of an Info response.
// Metadata is decoded into generic JSON values.
func InfoFromMessage(m *Message) (db.DatabaseInfo, error) {
	var info db.DatabaseInfo
	if err := json.Unmarshal(m.Meta, &info); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("decoding db info: %w", err)
	}
	return info, nil
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	msg.setError(err)
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		ErrCode: store.RetCInvalidOperation,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:   "success",
	MsgTError:     "error",
	MsgTKVGet:     "get",
	MsgTKVSet:     "set",
	MsgTKVDelete:  "delete",
	MsgTKVSetLock: "setLock",
	MsgTKVAdd:     "add",
	MsgTKVInfo:    "info",
	MsgTCustom:    "custom",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMessageType returns the MessageType for its string representation.
func ParseMessageType(s string) (MessageType, error) {
	for t, name := range messageTypeNames {
		if name == s {
			return t, nil
		}
	}
	return MsgTUnknown, fmt.Errorf("unknown message type: %s", s)
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMessageType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVGet     // Get the element for a key
	MsgTKVSet     // Set the value of a key
	MsgTKVDelete  // Delete a key
	MsgTKVSetLock // Lock or unlock a key
	MsgTKVAdd     // Add a number to the value of a key
	MsgTKVInfo    // Get information about the database

	// Custom operations

	MsgTCustom // Custom operation type
)
