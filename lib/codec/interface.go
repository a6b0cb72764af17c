package codec

// Compressor is the interface for all reversible compression strategies.
// Implementations must be safe for concurrent use.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes
	Compress(data []byte) ([]byte, error)
	// Decompress reverses Compress. It returns an error if data was not
	// produced by the same strategy or is corrupted.
	Decompress(data []byte) ([]byte, error)
	// Name returns the identifier of the strategy (e.g. "zlib")
	Name() string
}

// Serializer is the interface for all value serialization strategies.
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Marshal serializes a value into a byte array
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes a byte array into the value pointed to by v.
	// v must be a non-nil pointer. A pointer to an empty interface receives
	// the generic representation of the stored value.
	Unmarshal(data []byte, v any) error
	// Name returns the identifier of the strategy (e.g. "json")
	Name() string
	// Extension returns the file extension used for entries written with this strategy
	Extension() string
}

// ShapeChecker is implemented by serializers that only accept a restricted set
// of value shapes. The check runs before any bytes are produced.
type ShapeChecker interface {
	CheckShape(v any) error
}
