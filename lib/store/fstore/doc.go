// Package fstore implements store.IStore on top of a plain directory tree. Every
// entry is one file, membership is file existence and the tree is the only
// persisted state.
//
// Layout:
//
//	root/
//	  <key[0:2]>/        shard directory, named by the first two characters of the key
//	    <key[2:]>_       entry file: compress(value), "_" is the sentinel suffix
//
// Keys must be at least two characters (runes) long and must not contain '/', '\' or NUL.
// A key starting with ".." is rejected since its shard would be the parent of the root.
// Shard directories are never rebalanced, the fan-out is unbounded.
//
// Implementation Details:
//
//   - Lock Slots: Reads and writes of a single entry file happen under one of N
//     mutexes (default 256), selected by xxhash64(key) mod N. The lock table is
//     owned by the store instance and is independent of the shard directory.
//     Has, Delete, Keys and Len take no lock.
//
//   - Directory Cache: Shard directories created by the store are remembered in a
//     concurrent set. Directory creation uses MkdirAll, so a stale cache only costs
//     a failed write and never corrupts the tree.
//
//   - Compression: Values are passed through a codec.Compressor selected by name
//     or supplied by the caller. The store never serializes.
//
//   - Scans: Keys, Len and GetInfo walk both directory levels on every call. Files
//     without the sentinel suffix, nested directories and files directly in the root
//     are skipped.
//
// Usage Example:
//
//	s, err := fstore.NewFileStore("/var/lib/fkv", &fstore.Options{Compression: codec.CompressionZlib})
//	if err != nil {
//		return err
//	}
//	err = s.Set("hello", []byte("world"))
//	value, err := s.Get("hello")
//
// Every operation is counted in the global VictoriaMetrics set
// (fkv_store_ops_total, fkv_store_op_duration_seconds, fkv_store_errors_total).
package fstore
