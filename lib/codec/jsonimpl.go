package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// NewJSONSerializer creates a new serializer using canonical json encoding:
// map keys are sorted, separators are compact and no HTML escaping is applied.
// Only primitive and composite text-representable shapes are accepted (see CheckShape).
func NewJSONSerializer() Serializer {
	return jsonSerializerImpl{}
}

// jsonSerializerImpl implements the Serializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Serializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode terminates every value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (j jsonSerializerImpl) Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

func (j jsonSerializerImpl) Name() string { return SerializationJSON }

func (j jsonSerializerImpl) Extension() string { return "json" }

// CheckShape rejects sequences whose first element is not a number, string, map or
// sequence. nil and bool first elements are rejected as well.
// Only the first element is inspected, this is a best-effort guard and not a full type check.
func (j jsonSerializerImpl) CheckShape(v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	// []byte is encoded as a base64 string
	if rv.Type().Elem().Kind() == reflect.Uint8 || rv.Len() == 0 {
		return nil
	}

	first := rv.Index(0)
	for first.Kind() == reflect.Interface {
		if first.IsNil() {
			return fmt.Errorf("can not use json to serialize sequences starting with nil; use gob to store complex or custom data")
		}
		first = first.Elem()
	}

	// numbers, strings, maps and sequences only
	switch first.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Map, reflect.Slice, reflect.Array:
		return nil
	default:
		return fmt.Errorf("can not use json to serialize sequences of %s; use gob to store complex or custom data", first.Type())
	}
}
