// Package store provides the high-level interface for the byte-addressed key-value
// stores of fKV together with the unified error handling shared by every layer
// built on top of it (typed stores, the memoization cache and the query layer).
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations on opaque byte values
//   - A structured error type with return codes that can be matched with errors.Is
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store: Set, Get, Has, Delete, a lazy key iterator and a Len that is
//     recomputed on every call. Stores never serialize values, they may only compress them.
//
//   - Error System: A structured error reporting mechanism using typed return codes
//     (RetCode), a descriptive message and an optional wrapped cause. The sentinel
//     values ErrNotFound, ErrConstruction, ErrEncoding, ErrDecoding, ErrConfiguration
//     and ErrInvalidKey match any *Error carrying the same code:
//
//     if _, err := s.Get("ab12"); errors.Is(err, store.ErrNotFound) { ... }
//
//     No error is retried internally. The store has no notion of transient versus
//     permanent failure, retry policy belongs to the caller.
//
// Implementations:
//
//	- File Store (fstore): stores every entry in its own file below a two-level
//	  directory tree and serializes single-file reads and writes through a table
//	  of lock slots. Available in the "github.com/ValentinKolb/fKV/lib/store/fstore" package.
//
//	- Typed Store (tstore): not an IStore itself but a serialization layer on top
//	  of any IStore. Available in the "github.com/ValentinKolb/fKV/lib/store/tstore" package.
//
// The conformance suite in "github.com/ValentinKolb/fKV/lib/store/testing" can be run
// against any IStore implementation.
package store
