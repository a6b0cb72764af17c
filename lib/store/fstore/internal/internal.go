package internal

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Lock Table (fixed set of mutexes selected by key hash)
// --------------------------------------------------------------------------

// LockTable is a fixed-size table of mutexes. A key always maps to the same slot,
// unrelated keys may share a slot. The slot is independent of the shard directory of the key.
type LockTable struct {
	slots []sync.Mutex
}

// NewLockTable creates a lock table with n slots (at least one)
func NewLockTable(n int) *LockTable {
	if n < 1 {
		n = 1
	}
	return &LockTable{slots: make([]sync.Mutex, n)}
}

// Index returns the slot position of a key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *LockTable) Index(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(t.slots)))
}

// Slot returns the mutex guarding a key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *LockTable) Slot(key string) *sync.Mutex {
	return &t.slots[t.Index(key)]
}

// Size returns the number of slots
func (t *LockTable) Size() int {
	return len(t.slots)
}

// --------------------------------------------------------------------------
// Key Layout
// --------------------------------------------------------------------------

const (
	// Sentinel is appended to every entry file name
	Sentinel = "_"
	// PrefixLen is the number of leading key characters naming the shard directory
	PrefixLen = 2
)

// SplitKey cuts a key after its first PrefixLen characters (runes). ok is false
// for keys with fewer characters.
func SplitKey(key string) (shard, rest string, ok bool) {
	n := 0
	for i := 0; i < PrefixLen; i++ {
		if n >= len(key) {
			return "", "", false
		}
		_, size := utf8.DecodeRuneInString(key[n:])
		n += size
	}
	return key[:n], key[n:], true
}

// ValidateKey checks that a key can be mapped to an entry file below the root
func ValidateKey(key string) error {
	shard, _, ok := SplitKey(key)
	if !ok {
		return fmt.Errorf("key %q is shorter than %d characters", key, PrefixLen)
	}
	if strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("key %q contains a path separator or NUL byte", key)
	}
	if shard == ".." {
		return fmt.Errorf("key %q would address the parent directory", key)
	}
	return nil
}

// EntryPath returns the shard directory and the entry file of a key
func EntryPath(root, key string) (dir, file string, err error) {
	if err := ValidateKey(key); err != nil {
		return "", "", err
	}
	shard, rest, _ := SplitKey(key)
	dir = filepath.Join(root, shard)
	return dir, filepath.Join(dir, rest+Sentinel), nil
}

// KeyFromEntry reverses EntryPath for a directory listing. It reports false
// for names that can not have been written by a store (stray files).
func KeyFromEntry(shard, name string) (string, bool) {
	if utf8.RuneCountInString(shard) != PrefixLen || shard == ".." {
		return "", false
	}
	if !strings.HasSuffix(name, Sentinel) {
		return "", false
	}
	return shard + strings.TrimSuffix(name, Sentinel), true
}
