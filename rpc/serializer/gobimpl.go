package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/lucid-kv/lucid/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Every message is encoded as a self-contained gob stream (type info included).
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{
		buffers: sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding
type gobSerializerImpl struct {
	buffers sync.Pool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g *gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	buf := g.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer g.buffers.Put(buf)

	if err := gob.NewEncoder(buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("gob: encoding message: %w", err)
	}
	// the buffer is reused, hand out a copy
	return append([]byte(nil), buf.Bytes()...), nil
}

func (g *gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(msg); err != nil {
		return fmt.Errorf("gob: decoding message: %w", err)
	}
	return nil
}
