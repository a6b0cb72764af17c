package store

import (
	"fmt"
	"iter"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a byte-addressed key–value store.
// Values are opaque bytes: an IStore may compress them but never serializes them.
// All operations return a *Error (nil on success) when they fail.
type IStore interface {
	// Set inserts or updates a key–value pair. Prior content for the key is overwritten.
	Set(key string, value []byte) (err error)
	// Get returns the value for a key. An absent key yields an error matching ErrNotFound.
	Get(key string) (value []byte, err error)
	// Has returns whether a value is stored for the key.
	Has(key string) (loaded bool, err error)
	// Delete removes a key–value pair. An absent key yields an error matching ErrNotFound.
	Delete(key string) (err error)
	// Keys returns a lazy, restartable sequence of all stored keys. Every call starts a fresh scan,
	// the order is unspecified and concurrent mutations may or may not be observed.
	// A failed scan yields a single non-nil error and stops.
	Keys() iter.Seq2[string, error]
	// Len counts the stored entries. The count is recomputed on every call.
	Len() (n int, err error)
	// GetInfo returns metadata about the store. The values describe the state at the time of the scan.
	GetInfo() (info Info, err error)
	// Path returns the root directory of the store.
	Path() string
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and an optional underlying cause.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying cause (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same return code.
// This makes the sentinel errors below usable with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError with the given code and message that wraps err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// Sentinel errors, to be used with errors.Is.
var (
	ErrNotFound      = NewError(RetCNotFound, "key not found")
	ErrConstruction  = NewError(RetCConstruction, "store construction failed")
	ErrEncoding      = NewError(RetCEncoding, "value cannot be encoded")
	ErrDecoding      = NewError(RetCDecoding, "value cannot be decoded")
	ErrConfiguration = NewError(RetCConfiguration, "invalid configuration")
	ErrInvalidKey    = NewError(RetCInvalidKey, "invalid key")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Command executed successfully.
	RetCInternalError                // 1: Command failed due to an internal (usually I/O) error.
	RetCNotFound                     // 2: The key does not exist.
	RetCConstruction                 // 3: The store could not be created at the given path.
	RetCEncoding                     // 4: The value was rejected by the active serialization strategy.
	RetCDecoding                     // 5: Stored bytes could not be decompressed or deserialized.
	RetCConfiguration                // 6: Unknown codec name or otherwise invalid options.
	RetCInvalidKey                   // 7: The key cannot be mapped to an entry file.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCConstruction:
		return "ConstructionError"
	case RetCEncoding:
		return "EncodingIncompatibility"
	case RetCDecoding:
		return "DecodingFailure"
	case RetCConfiguration:
		return "ConfigurationError"
	case RetCInvalidKey:
		return "InvalidKey"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Store Info
// --------------------------------------------------------------------------

// Info describes the state of a store.
type Info struct {
	Path        string      `json:"path"`
	Entries     int         `json:"entries"`
	ShardDirs   int         `json:"shard_dirs"`
	SizeBytes   int64       `json:"size_bytes"`
	Compression string      `json:"compression"`
	LockSlots   int         `json:"lock_slots"`
	Metadata    interface{} `json:"metadata"`
}
