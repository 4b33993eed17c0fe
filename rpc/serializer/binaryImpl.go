package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout (big endian):
//
//	MsgType u8 | flags u16 | present fields in flag order
//
// Strings and byte slices are prefixed with a u32 length, numbers are fixed
// width. Booleans are carried by their flag alone.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey         uint16 = 1 << 0
	hasValue       uint16 = 1 << 1
	hasAddend      uint16 = 1 << 2
	isLocked       uint16 = 1 << 3
	hasContentTag  uint16 = 1 << 4
	hasCreatedAt   uint16 = 1 << 5
	hasUpdatedAt   uint16 = 1 << 6
	hasExpireAt    uint16 = 1 << 7
	hasUpdateCount uint16 = 1 << 8
	isOk           uint16 = 1 << 9
	hasErr         uint16 = 1 << 10
	hasErrCode     uint16 = 1 << 11
	hasMeta        uint16 = 1 << 12
)

const headerSize = 3 // MsgType + flags

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	flags := b.flags(msg)

	w := writer{buf: make([]byte, headerSize, b.sizeBytes(msg, flags))}
	w.buf[0] = byte(msg.MsgType)
	binary.BigEndian.PutUint16(w.buf[1:3], flags)

	if flags&hasKey != 0 {
		w.bytes([]byte(msg.Key))
	}
	if flags&hasValue != 0 {
		w.bytes(msg.Value)
	}
	if flags&hasAddend != 0 {
		w.uint64(math.Float64bits(msg.Addend))
	}
	if flags&hasContentTag != 0 {
		w.bytes([]byte(msg.ContentTag))
	}
	if flags&hasCreatedAt != 0 {
		w.uint64(uint64(msg.CreatedAt))
	}
	if flags&hasUpdatedAt != 0 {
		w.uint64(uint64(msg.UpdatedAt))
	}
	if flags&hasExpireAt != 0 {
		w.uint64(uint64(msg.ExpireAt))
	}
	if flags&hasUpdateCount != 0 {
		w.uint64(msg.UpdateCount)
	}
	if flags&hasErr != 0 {
		w.bytes([]byte(msg.Err))
	}
	if flags&hasErrCode != 0 {
		w.uint64(uint64(msg.ErrCode))
	}
	if flags&hasMeta != 0 {
		w.bytes(msg.Meta)
	}

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{
		MsgType: common.MessageType(data[0]),
	}
	flags := binary.BigEndian.Uint16(data[1:3])
	r := reader{data: data, pos: headerSize}

	msg.Locked = flags&isLocked != 0
	msg.Ok = flags&isOk != 0

	if flags&hasKey != 0 {
		msg.Key = string(r.bytes("key"))
	}
	if flags&hasValue != 0 {
		msg.Value = r.bytes("value")
	}
	if flags&hasAddend != 0 {
		msg.Addend = math.Float64frombits(r.uint64("addend"))
	}
	if flags&hasContentTag != 0 {
		msg.ContentTag = string(r.bytes("content tag"))
	}
	if flags&hasCreatedAt != 0 {
		msg.CreatedAt = int64(r.uint64("created at"))
	}
	if flags&hasUpdatedAt != 0 {
		msg.UpdatedAt = int64(r.uint64("updated at"))
	}
	if flags&hasExpireAt != 0 {
		msg.ExpireAt = int64(r.uint64("expire at"))
	}
	if flags&hasUpdateCount != 0 {
		msg.UpdateCount = r.uint64("update count")
	}
	if flags&hasErr != 0 {
		msg.Err = string(r.bytes("error"))
	}
	if flags&hasErrCode != 0 {
		msg.ErrCode = store.RetCode(r.uint64("error code"))
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.bytes("meta")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// flags returns the flag word for the fields present in msg
func (b binarySerializerImpl) flags(msg common.Message) uint16 {
	var flags uint16
	set := func(present bool, flag uint16) {
		if present {
			flags |= flag
		}
	}
	set(msg.Key != "", hasKey)
	set(msg.Value != nil, hasValue)
	set(msg.Addend != 0, hasAddend)
	set(msg.Locked, isLocked)
	set(msg.ContentTag != "", hasContentTag)
	set(msg.CreatedAt != 0, hasCreatedAt)
	set(msg.UpdatedAt != 0, hasUpdatedAt)
	set(msg.ExpireAt != 0, hasExpireAt)
	set(msg.UpdateCount != 0, hasUpdateCount)
	set(msg.Ok, isOk)
	set(msg.Err != "", hasErr)
	set(msg.ErrCode != 0, hasErrCode)
	set(msg.Meta != nil, hasMeta)
	return flags
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message, flags uint16) int {
	size := headerSize

	// length prefixed fields
	for _, f := range []struct {
		flag uint16
		n    int
	}{
		{hasKey, len(msg.Key)},
		{hasValue, len(msg.Value)},
		{hasContentTag, len(msg.ContentTag)},
		{hasErr, len(msg.Err)},
		{hasMeta, len(msg.Meta)},
	} {
		if flags&f.flag != 0 {
			size += 4 + f.n
		}
	}

	// fixed width fields
	for _, flag := range []uint16{hasAddend, hasCreatedAt, hasUpdatedAt, hasExpireAt, hasUpdateCount, hasErrCode} {
		if flags&flag != 0 {
			size += 8
		}
	}

	return size
}

// writer appends encoded fields to a buffer
type writer struct {
	buf []byte
}

func (w *writer) uint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *writer) bytes(v []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(v)))
	w.buf = append(w.buf, v...)
}

// reader decodes fields from a buffer. After the first error all reads return
// zero values and err stays set.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) uint64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

// bytes reads a length prefixed field into a new slice (empty, not nil, for length 0)
func (r *reader) bytes(field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s length", field)
		return nil
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos : r.pos+4]))
	r.pos += 4
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return nil
	}
	v := make([]byte, n)
	copy(v, r.data[r.pos:r.pos+n])
	r.pos += n
	return v
}
