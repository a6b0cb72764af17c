package tstore

import (
	"fmt"
	"iter"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/fstore"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// Options configures a typed store
type Options struct {
	Serialization string           // Name of a built-in serialization strategy ("" = json)
	Serializer    codec.Serializer // Custom serializer, takes precedence over Serialization

	// Only used by Open to create the underlying file store
	Compression string
	Compressor  codec.Compressor
	LockSlots   int
}

// DefaultOptions returns the options used when New or Open is called with nil
func DefaultOptions() *Options {
	return &Options{
		Serialization: codec.SerializationJSON,
		Compression:   codec.CompressionNone,
		LockSlots:     fstore.DefaultLockSlots,
	}
}

// TypedStore stores Go values in a byte store by passing them through a serializer
type TypedStore struct {
	store      store.IStore
	serializer codec.Serializer
}

// New creates a typed store on top of an existing byte store
func New(s store.IStore, opts *Options) (*TypedStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	name := opts.Serialization
	if name == "" && opts.Serializer == nil {
		name = codec.SerializationJSON
	}
	serializer, err := codec.ResolveSerializer(name, opts.Serializer)
	if err != nil {
		return nil, err
	}

	log.Infof("opened typed store at %s (serialization=%s)", s.Path(), serializer.Name())
	return &TypedStore{store: s, serializer: serializer}, nil
}

// Open creates a file store at root and a typed store on top of it
func Open(root string, opts *Options) (*TypedStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	s, err := fstore.NewFileStore(root, &fstore.Options{
		Compression: opts.Compression,
		Compressor:  opts.Compressor,
		LockSlots:   opts.LockSlots,
	})
	if err != nil {
		return nil, err
	}
	return New(s, opts)
}

// Set serializes value and stores it under key. Values rejected by the serializer
// fail with store.RetCEncoding before anything is written.
func (ts *TypedStore) Set(key string, value any) error {
	if checker, ok := ts.serializer.(codec.ShapeChecker); ok {
		if err := checker.CheckShape(value); err != nil {
			log.Warningf("rejected value for %q: %v", key, err)
			return store.WrapError(store.RetCEncoding, fmt.Sprintf("%s cannot store the value of %q", ts.serializer.Name(), key), err)
		}
	}

	data, err := ts.serializer.Marshal(value)
	if err != nil {
		log.Warningf("cannot serialize value for %q: %v", key, err)
		return store.WrapError(store.RetCEncoding, fmt.Sprintf("%s cannot serialize the value of %q", ts.serializer.Name(), key), err)
	}

	log.Infof("set %q (%T, %d bytes serialized)", key, value, len(data))
	return ts.store.Set(key, data)
}

// Get returns the generic representation of the value stored under key.
// What a generic value looks like depends on the serializer: json yields
// float64, string, bool, []any and map[string]any, gob restores the written type.
func (ts *TypedStore) Get(key string) (any, error) {
	var out any
	if err := ts.GetInto(key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetInto deserializes the value stored under key into out, which must be a pointer
func (ts *TypedStore) GetInto(key string, out any) error {
	data, err := ts.store.Get(key)
	if err != nil {
		return err
	}

	if err := ts.serializer.Unmarshal(data, out); err != nil {
		log.Warningf("cannot deserialize value of %q into %T: %v", key, out, err)
		return store.WrapError(store.RetCDecoding, fmt.Sprintf("%s cannot deserialize the value of %q", ts.serializer.Name(), key), err)
	}

	log.Infof("get %q (%T)", key, out)
	return nil
}

// GetAs returns the value stored under key as a T
func GetAs[T any](ts *TypedStore, key string) (T, error) {
	var out T
	if err := ts.GetInto(key, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Has returns whether a value is stored for the key
func (ts *TypedStore) Has(key string) (bool, error) {
	return ts.store.Has(key)
}

// Delete removes the value stored under key
func (ts *TypedStore) Delete(key string) error {
	return ts.store.Delete(key)
}

// Keys returns a lazy sequence of all stored keys (see store.IStore)
func (ts *TypedStore) Keys() iter.Seq2[string, error] {
	return ts.store.Keys()
}

// Len counts the stored entries
func (ts *TypedStore) Len() (int, error) {
	return ts.store.Len()
}

// Store returns the underlying byte store
func (ts *TypedStore) Store() store.IStore {
	return ts.store
}

// Serializer returns the active serialization strategy
func (ts *TypedStore) Serializer() codec.Serializer {
	return ts.serializer
}
