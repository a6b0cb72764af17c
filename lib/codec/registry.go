package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("codec")

// Names of the built-in compression strategies
const (
	CompressionNone   = "none"
	CompressionZlib   = "zlib"
	CompressionLZMA   = "lzma"
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionLZ4    = "lz4"
)

// Names of the built-in serialization strategies
const (
	SerializationNone    = "none"
	SerializationGob     = "gob"
	SerializationJSON    = "json"
	SerializationMsgpack = "msgpack"
)

var (
	compressors = map[string]func() Compressor{
		CompressionNone:   NewNoneCompressor,
		CompressionZlib:   NewZlibCompressor,
		CompressionLZMA:   NewLZMACompressor,
		CompressionZstd:   NewZstdCompressor,
		CompressionSnappy: NewSnappyCompressor,
		CompressionLZ4:    NewLZ4Compressor,
	}

	serializers = map[string]func() Serializer{
		SerializationNone:    NewRawSerializer,
		SerializationGob:     NewGOBSerializer,
		SerializationJSON:    NewJSONSerializer,
		SerializationMsgpack: NewMsgpackSerializer,
	}

	// alternative spellings accepted by the lookup functions
	aliases = map[string]string{
		"":       SerializationNone,
		"raw":    SerializationNone,
		"binary": SerializationGob,
	}
)

// GetCompressor returns the compression strategy registered under name.
// The empty string selects "none". Unknown names fail with a store.RetCConfiguration error.
func GetCompressor(name string) (Compressor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = CompressionNone
	}
	factory, ok := compressors[key]
	if !ok {
		return nil, store.NewError(store.RetCConfiguration,
			fmt.Sprintf("unknown compression %q (expected one of: %s)", name, strings.Join(CompressionNames(), ", ")))
	}
	return factory(), nil
}

// GetSerializer returns the serialization strategy registered under name.
// The empty string and "raw" select "none", "binary" selects "gob".
// Unknown names fail with a store.RetCConfiguration error.
func GetSerializer(name string) (Serializer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	factory, ok := serializers[key]
	if !ok {
		return nil, store.NewError(store.RetCConfiguration,
			fmt.Sprintf("unknown serialization %q (expected one of: %s)", name, strings.Join(SerializationNames(), ", ")))
	}
	return factory(), nil
}

// ResolveCompressor returns custom if it is set and the named strategy otherwise
func ResolveCompressor(name string, custom Compressor) (Compressor, error) {
	if custom != nil {
		log.Debugf("using custom compressor %s", custom.Name())
		return custom, nil
	}
	return GetCompressor(name)
}

// ResolveSerializer returns custom if it is set and the named strategy otherwise
func ResolveSerializer(name string, custom Serializer) (Serializer, error) {
	if custom != nil {
		log.Debugf("using custom serializer %s", custom.Name())
		return custom, nil
	}
	return GetSerializer(name)
}

// CompressionNames returns the sorted names of all built-in compression strategies
func CompressionNames() []string {
	return sortedKeys(compressors)
}

// SerializationNames returns the sorted names of all built-in serialization strategies
func SerializationNames() []string {
	return sortedKeys(serializers)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
