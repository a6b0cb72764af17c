// Package memo persists function results in a dedicated typed file store.
//
// Wrap a function once and call the returned cache instead of the function:
//
//	inc, err := memo.Wrap(func(x int) (int, error) { return x + 1, nil }, &memo.Options{Name: "inc"})
//	six, err := inc.Call(5) // computes and stores 6
//	six, err = inc.Call(5)  // read from ./_fkvcache_inc_json, the function is not called
//
// Every call is keyed by hex(sha256(json([name, args]))) plus the extension of
// the serialization strategy (.json, .gob or .msgpack). The json used for keys is
// canonical (sorted map keys, compact separators), so keys are stable across
// processes. The stored entry holds the inputs next to the output.
//
// Lookup and store are two independent store operations: concurrent first calls
// with the same arguments may all run the function, the last write wins. Set
// Options.CollapseConcurrent to run it once per process for such calls.
package memo
