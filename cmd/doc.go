// Package cmd implements the command-line interface of the fKV store. It
// provides a hierarchical command structure for working with a store directory
// and inspecting memoization caches.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, del, keys, info, perf)
//   - memo: Commands for memoization caches (key)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as FKV_<FLAG> environment variable, .env and
// .env.local files in the working directory are loaded on start.
//
// See fkv -help for a list of all commands.
package cmd
