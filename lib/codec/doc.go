// Package codec provides the reversible encode/decode pairs used by the fKV stores:
// compressors, which turn bytes into (usually smaller) bytes, and serializers,
// which turn Go values into bytes.
//
// Both kinds are selected either by name through GetCompressor / GetSerializer
// or by passing a caller-supplied implementation of the Compressor or Serializer
// interface (CompressorFuncs and SerializerFuncs adapt plain function pairs).
// Unknown names are rejected with a store.RetCConfiguration error.
//
// Compression strategies:
//   - none: passthrough
//   - zlib: general-purpose deflate
//   - lzma: higher ratio, slower
//   - zstd, snappy, lz4: fast general-purpose alternatives
//
// Serialization strategies:
//   - none (alias raw): byte slices and strings only
//   - gob (alias binary): full-fidelity binary format for arbitrary Go values
//   - json: canonical text (sorted map keys, compact separators). The json serializer
//     implements ShapeChecker and rejects sequences whose first element is not a
//     primitive or composite text-representable value.
//   - msgpack: compact binary format for text-representable shapes
package codec
