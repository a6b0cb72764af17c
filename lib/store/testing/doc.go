// Package testing provides standardised tests and benchmarks for
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - RunStoreTests: a test suite validating the IStore contract (round trips,
//     NotFound semantics, key iteration, stray files, concurrency)
//   - RunStoreBenchmarks: throughput benchmarks of the common operations
//
// Example usage:
//
//	factory := func(root string) (store.IStore, error) {
//		return fstore.NewFileStore(root, &fstore.Options{Compression: "zlib"})
//	}
//
//	// Running the standard test suite
//	testing.RunStoreTests(t, "zlib", factory)
//
//	// Running performance benchmarks
//	testing.RunStoreBenchmarks(b, "zlib", factory)
package testing
