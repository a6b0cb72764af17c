package tstore

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
)

type user struct {
	Name string
	Age  int
}

func openStore(t *testing.T, serialization, compression string) *TypedStore {
	t.Helper()
	ts, err := Open(t.TempDir(), &Options{Serialization: serialization, Compression: compression})
	if err != nil {
		t.Fatalf("Failed to open typed store: %v", err)
	}
	return ts
}

func TestSequenceRoundTrip(t *testing.T) {
	ts := openStore(t, codec.SerializationJSON, "")

	if err := ts.Set("x", []int{1, 2, 3}); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}

	typed, err := GetAs[[]int](ts, "x")
	if err != nil {
		t.Fatalf("Unexpected error during GetAs: %v", err)
	}
	if !reflect.DeepEqual(typed, []int{1, 2, 3}) {
		t.Errorf("Expected [1 2 3], got %v", typed)
	}

	generic, err := ts.Get("x")
	if err != nil {
		t.Fatalf("Unexpected error during Get: %v", err)
	}
	if !reflect.DeepEqual(generic, []any{1.0, 2.0, 3.0}) {
		t.Errorf("Expected generic sequence [1 2 3], got %#v", generic)
	}
}

func TestRoundTripMatrix(t *testing.T) {
	values := map[string]any{
		"int":    42,
		"string": "hello",
		"ints":   []int{1, 2, 3},
		"map":    map[string]string{"a": "b"},
		"nested": map[string][]float64{"xs": {1.5, 2.5}},
	}

	for _, serialization := range []string{codec.SerializationJSON, codec.SerializationGob, codec.SerializationMsgpack} {
		for _, compression := range codec.CompressionNames() {
			t.Run(serialization+"/"+compression, func(t *testing.T) {
				ts := openStore(t, serialization, compression)
				for key, value := range values {
					if err := ts.Set("k-"+key, value); err != nil {
						t.Fatalf("Unexpected error during Set(%s): %v", key, err)
					}
					out := reflect.New(reflect.TypeOf(value))
					if err := ts.GetInto("k-"+key, out.Interface()); err != nil {
						t.Fatalf("Unexpected error during GetInto(%s): %v", key, err)
					}
					if !reflect.DeepEqual(value, out.Elem().Interface()) {
						t.Errorf("Value %s mismatch: %#v vs %#v", key, value, out.Elem().Interface())
					}
				}
			})
		}
	}
}

func TestStructsNeedGob(t *testing.T) {
	users := []user{{Name: "jack", Age: 18}, {Name: "jasmine", Age: 18}}

	ts := openStore(t, codec.SerializationJSON, "")
	err := ts.Set("users", users)
	if !errors.Is(err, store.ErrEncoding) {
		t.Fatalf("Expected EncodingIncompatibility, got %v", err)
	}
	if has, _ := ts.Has("users"); has {
		t.Errorf("Expected nothing to be written for a rejected value")
	}
	if n, _ := ts.Len(); n != 0 {
		t.Errorf("Expected empty store, got %d entries", n)
	}

	gs := openStore(t, codec.SerializationGob, codec.CompressionZlib)
	if err := gs.Set("users", users); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}
	restored, err := GetAs[[]user](gs, "users")
	if err != nil || !reflect.DeepEqual(restored, users) {
		t.Errorf("Expected %v, got %v (%v)", users, restored, err)
	}
	generic, err := gs.Get("users")
	if err != nil || !reflect.DeepEqual(generic, users) {
		t.Errorf("Expected gob to restore []user, got %#v (%v)", generic, err)
	}
}

func TestUnserializableValue(t *testing.T) {
	ts := openStore(t, codec.SerializationJSON, "")
	if err := ts.Set("fn", map[string]any{"f": func() {}}); !errors.Is(err, store.ErrEncoding) {
		t.Errorf("Expected EncodingIncompatibility for a func value, got %v", err)
	}

	raw := openStore(t, codec.SerializationNone, "")
	if err := raw.Set("num", 10); !errors.Is(err, store.ErrEncoding) {
		t.Errorf("Expected EncodingIncompatibility for raw int, got %v", err)
	}
	if err := raw.Set("bytes", []byte{1, 2, 3}); err != nil {
		t.Errorf("Unexpected error for raw bytes: %v", err)
	}
	if b, err := GetAs[[]byte](raw, "bytes"); err != nil || !reflect.DeepEqual(b, []byte{1, 2, 3}) {
		t.Errorf("Expected raw bytes back, got %v (%v)", b, err)
	}
}

func TestDecodingFailure(t *testing.T) {
	ts := openStore(t, codec.SerializationJSON, "")
	if err := ts.Store().Set("broken", []byte("{not json")); err != nil {
		t.Fatalf("Unexpected error during raw Set: %v", err)
	}

	if _, err := ts.Get("broken"); !errors.Is(err, store.ErrDecoding) {
		t.Errorf("Expected DecodingFailure, got %v", err)
	}

	if err := ts.Set("text", "a string"); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}
	if _, err := GetAs[int](ts, "text"); !errors.Is(err, store.ErrDecoding) {
		t.Errorf("Expected DecodingFailure for a type mismatch, got %v", err)
	}

	if _, err := ts.Get("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestPassthrough(t *testing.T) {
	ts := openStore(t, "", "")
	if ts.Serializer().Name() != codec.SerializationJSON {
		t.Errorf("Expected json as default serialization, got %s", ts.Serializer().Name())
	}

	for i := 0; i < 5; i++ {
		if err := ts.Set(fmt.Sprintf("key-%d", i), i); err != nil {
			t.Fatalf("Unexpected error during Set: %v", err)
		}
	}
	if n, err := ts.Len(); err != nil || n != 5 {
		t.Errorf("Expected 5 entries, got %d (%v)", n, err)
	}

	count := 0
	for _, err := range ts.Keys() {
		if err != nil {
			t.Fatalf("Unexpected error during Keys: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 keys, got %d", count)
	}

	if err := ts.Delete("key-0"); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	if has, _ := ts.Has("key-0"); has {
		t.Errorf("Expected key-0 to be deleted")
	}
	if err := ts.Delete("key-0"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestConfiguration(t *testing.T) {
	if _, err := Open(t.TempDir(), &Options{Serialization: "pickle"}); !errors.Is(err, store.ErrConfiguration) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
	if _, err := Open(t.TempDir(), &Options{Compression: "brotli"}); !errors.Is(err, store.ErrConfiguration) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}

	custom := codec.SerializerFuncs{
		Label:       "upper",
		MarshalFn:   func(v any) ([]byte, error) { return []byte(fmt.Sprint(v)), nil },
		UnmarshalFn: func(b []byte, v any) error { *(v.(*any)) = string(b); return nil },
	}
	ts, err := Open(t.TempDir(), &Options{Serializer: custom})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := ts.Set("ck", 12); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}
	if v, err := ts.Get("ck"); err != nil || v != "12" {
		t.Errorf("Expected \"12\", got %v (%v)", v, err)
	}
}

func TestList(t *testing.T) {
	l := AsList([]int{1, 2, 3}).Append(4, 5).Insert(0, 0).Insert(-1, 9).Remove(2).Reverse()
	expected := []int{5, 9, 4, 3, 1, 0}
	if !reflect.DeepEqual(l.Items(), expected) {
		t.Errorf("Expected %v, got %v", expected, l.Items())
	}
	if l.Len() != 6 {
		t.Errorf("Expected 6 items, got %d", l.Len())
	}

	l.Remove(42).Insert(100, 7)
	if got := l.Items(); got[len(got)-1] != 7 || len(got) != 7 {
		t.Errorf("Expected clamped insert at the end, got %v", got)
	}

	generic := AsList([]any{map[string]any{"a": 1.0}, "x"}).Remove(map[string]any{"a": 1.0})
	if !reflect.DeepEqual(generic.Items(), []any{"x"}) {
		t.Errorf("Expected deep-equal removal, got %v", generic.Items())
	}

	ts := openStore(t, codec.SerializationJSON, "")
	if err := ts.Set("names", []string{"b", "a"}); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}
	names, _ := GetAs[[]string](ts, "names")
	if err := ts.Set("names", AsList(names).Append("c").Reverse().Items()); err != nil {
		t.Fatalf("Unexpected error during Set: %v", err)
	}
	if names, _ := GetAs[[]string](ts, "names"); !reflect.DeepEqual(names, []string{"c", "a", "b"}) {
		t.Errorf("Expected [c a b], got %v", names)
	}
}
