package codec

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"reflect"
)

// registration walks stop at this depth
const maxRegisterDepth = 32

func init() {
	// generic containers are not part of gob's pre-registered basic types
	gob.Register([]interface{}(nil))
	gob.Register(map[string]interface{}(nil))
	gob.Register(map[interface{}]interface{}(nil))
}

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Values are transmitted as interface values, so the concrete type travels
// with the data and a read into an empty interface restores it. Concrete types
// found in the written value are registered automatically; readers in a fresh
// process that decode into an empty interface must Register custom types first.
func NewGOBSerializer() Serializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the Serializer interface using gob encoding
type gobSerializerImpl struct {
}

// Register makes a custom type known to the gob serializer. It is only needed
// for reads into an empty interface in processes that never wrote the type.
func Register(value any) error {
	return safeRegister(value)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Serializer)
// --------------------------------------------------------------------------

func (g *gobSerializerImpl) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, errors.New("gob: cannot encode nil value")
	}
	if err := registerValue(reflect.ValueOf(v), 0); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *gobSerializerImpl) Unmarshal(b []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("gob: Unmarshal requires a non-nil pointer, got %T", v)
	}
	target := rv.Elem()
	if target.Kind() != reflect.Interface {
		if err := safeRegister(reflect.Zero(target.Type()).Interface()); err != nil {
			return err
		}
	}

	var out any
	dec := gob.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&out); err != nil {
		return err
	}

	if out == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	ov := reflect.ValueOf(out)
	if !ov.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("gob: stored %s is not assignable to %s", ov.Type(), target.Type())
	}
	target.Set(ov)
	return nil
}

func (g *gobSerializerImpl) Name() string { return SerializationGob }

func (g *gobSerializerImpl) Extension() string { return "gob" }

// --------------------------------------------------------------------------
// Type registration
// --------------------------------------------------------------------------

// safeRegister registers the concrete type of value with gob.
// gob.Register panics on conflicting names, the panic is returned as an error.
func safeRegister(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gob: cannot register %T: %v", value, r)
		}
	}()
	gob.Register(value)
	return nil
}

// registerValue registers the concrete types of v and of every interface value nested in v
func registerValue(v reflect.Value, depth int) error {
	if !v.IsValid() || depth > maxRegisterDepth {
		return nil
	}

	if depth == 0 && v.CanInterface() {
		if err := safeRegister(v.Interface()); err != nil {
			return err
		}
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		elem := v.Elem()
		if elem.CanInterface() {
			if err := safeRegister(elem.Interface()); err != nil {
				return err
			}
		}
		return registerValue(elem, depth+1)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return registerValue(v.Elem(), depth+1)

	case reflect.Slice, reflect.Array:
		if !needsWalk(v.Type().Elem()) {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := registerValue(v.Index(i), depth+1); err != nil {
				return err
			}
		}

	case reflect.Map:
		walkKeys, walkValues := needsWalk(v.Type().Key()), needsWalk(v.Type().Elem())
		if !walkKeys && !walkValues {
			return nil
		}
		iter := v.MapRange()
		for iter.Next() {
			if walkKeys {
				if err := registerValue(iter.Key(), depth+1); err != nil {
					return err
				}
			}
			if walkValues {
				if err := registerValue(iter.Value(), depth+1); err != nil {
					return err
				}
			}
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() || !needsWalk(t.Field(i).Type) {
				continue
			}
			if err := registerValue(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// needsWalk reports whether values of type t can contain interface values
func needsWalk(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return true
	default:
		return false
	}
}
