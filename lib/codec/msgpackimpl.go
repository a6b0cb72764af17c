package codec

import (
	"reflect"

	msgpack "github.com/hashicorp/go-msgpack/codec"
)

// NewMsgpackSerializer creates a new serializer using the msgpack binary format.
// Maps read into an empty interface are decoded as map[string]interface{} and
// raw bytes as strings, integers come back as int64 or uint64.
func NewMsgpackSerializer() Serializer {
	h := &msgpack.MsgpackHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	h.RawToString = true
	h.WriteExt = true
	return &msgpackSerializerImpl{handle: h}
}

// msgpackSerializerImpl implements the Serializer interface using msgpack encoding
type msgpackSerializerImpl struct {
	handle *msgpack.MsgpackHandle
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Serializer)
// --------------------------------------------------------------------------

func (m *msgpackSerializerImpl) Marshal(v any) ([]byte, error) {
	var out []byte
	enc := msgpack.NewEncoderBytes(&out, m.handle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *msgpackSerializerImpl) Unmarshal(b []byte, v any) error {
	dec := msgpack.NewDecoderBytes(b, m.handle)
	return dec.Decode(v)
}

func (m *msgpackSerializerImpl) Name() string { return SerializationMsgpack }

func (m *msgpackSerializerImpl) Extension() string { return "msgpack" }
