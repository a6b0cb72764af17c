package kv

import (
	"reflect"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw           string
		serialization string
		asString      bool
		want          any
	}{
		{"hello", "json", false, "hello"},
		{"42", "json", false, 42.0},
		{"42", "json", true, "42"},
		{`{"a":[1,2]}`, "gob", false, map[string]any{"a": []any{1.0, 2.0}}},
		{`"quoted"`, "msgpack", false, "quoted"},
		{"raw bytes", "none", false, []byte("raw bytes")},
	}
	for _, tt := range tests {
		if got := parseValue(tt.raw, tt.serialization, tt.asString); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseValue(%q, %s, %t) = %#v, want %#v", tt.raw, tt.serialization, tt.asString, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{[]byte("bytes"), "bytes"},
		{"text", "text"},
		{map[string]any{"b": 1.0, "a": "<x>"}, `{"a":"<x>","b":1}`},
		{[]any{1.0, "two"}, `[1,"two"]`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
