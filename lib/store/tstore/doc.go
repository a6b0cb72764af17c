// Package tstore layers serialization on top of a store.IStore. Values are
// serialized with a codec.Serializer and handed to the byte store, which applies
// its own compression.
//
// The default strategy is json. It is restricted to text-representable shapes:
// storing a slice whose first element is not a number, string, map or sequence
// (a struct, pointer, bool or nil) fails with store.RetCEncoding and nothing is
// written. Only the first element is inspected. Use gob for custom or complex data.
//
// Reading comes in three flavours:
//
//	v, err := ts.Get("x")                 // generic value (json: []any, map[string]any, float64, ...)
//	err = ts.GetInto("x", &out)          // decode into a caller-supplied pointer
//	xs, err := tstore.GetAs[[]int](ts, "x") // typed result
//
// Stored bytes that can not be deserialized fail with store.RetCDecoding.
package tstore
