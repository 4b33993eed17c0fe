package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/lucid-kv/lucid/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Message types are encoded by name, byte slices as base64.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("json: decoding message: %w", err)
	}
	return nil
}
