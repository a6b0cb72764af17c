package codec

import (
	"fmt"
)

// NewRawSerializer creates the pass-through serializer. It only accepts byte
// slices and strings and always reads back a byte slice.
func NewRawSerializer() Serializer {
	return rawSerializerImpl{}
}

type rawSerializerImpl struct{}

func (rawSerializerImpl) Marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	case string:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("raw serializer only accepts []byte or string, got %T", v)
	}
}

func (rawSerializerImpl) Unmarshal(b []byte, v any) error {
	data := make([]byte, len(b))
	copy(data, b)

	switch target := v.(type) {
	case *[]byte:
		*target = data
	case *string:
		*target = string(data)
	case *any:
		*target = data
	default:
		return fmt.Errorf("raw serializer can only read into *[]byte, *string or *any, got %T", v)
	}
	return nil
}

func (rawSerializerImpl) Name() string { return SerializationNone }

func (rawSerializerImpl) Extension() string { return "bin" }

// --------------------------------------------------------------------------
// caller supplied
// --------------------------------------------------------------------------

// SerializerFuncs adapts a pair of functions to the Serializer interface.
// Both functions must be set and must be safe for concurrent use.
type SerializerFuncs struct {
	Label       string
	Ext         string
	MarshalFn   func(any) ([]byte, error)
	UnmarshalFn func([]byte, any) error
}

func (f SerializerFuncs) Marshal(v any) ([]byte, error)  { return f.MarshalFn(v) }
func (f SerializerFuncs) Unmarshal(b []byte, v any) error { return f.UnmarshalFn(b, v) }

func (f SerializerFuncs) Name() string {
	if f.Label == "" {
		return "custom"
	}
	return f.Label
}

func (f SerializerFuncs) Extension() string {
	if f.Ext == "" {
		return "bin"
	}
	return f.Ext
}
