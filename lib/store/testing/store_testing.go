package testing

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/fKV/lib/store"
)

// StoreFactory creates a store rooted at the given directory. Calling it twice
// with the same root must yield two views of the same data.
type StoreFactory func(root string) (store.IStore, error)

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, newStore(t, factory))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, newStore(t, factory))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, newStore(t, factory))
		})

		t.Run("Keys&Len", func(t *testing.T) {
			testKeysLen(t, newStore(t, factory))
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, newStore(t, factory))
		})

		t.Run("InvalidKeys", func(t *testing.T) {
			testInvalidKeys(t, newStore(t, factory))
		})

		t.Run("ShardCoexistence", func(t *testing.T) {
			testShardCoexistence(t, newStore(t, factory))
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, newStore(t, factory))
		})

		t.Run("ConcurrentSameKey", func(t *testing.T) {
			testConcurrentSameKey(t, newStore(t, factory))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, newStore(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newStore creates a store in a fresh temporary directory
func newStore(t testing.TB, factory StoreFactory) store.IStore {
	t.Helper()
	s, err := factory(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

// mustSet stores a value and fails the test on error
func mustSet(t testing.TB, s store.IStore, key string, value []byte) {
	t.Helper()
	if err := s.Set(key, value); err != nil {
		t.Fatalf("Unexpected error during Set(%q): %v", key, err)
	}
}

// collectKeys drains the key iterator
func collectKeys(t testing.TB, s store.IStore) []string {
	t.Helper()
	var keys []string
	for key, err := range s.Keys() {
		if err != nil {
			t.Fatalf("Unexpected error during Keys: %v", err)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, s, testKey, testValue1)

	result, err := s.Get(testKey)
	if err != nil {
		t.Errorf("Expected key %s to exist after Set, got %v", testKey, err)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, s, testKey, testValue2)

	result, err = s.Get(testKey)
	if err != nil {
		t.Errorf("Expected key %s to exist after overwrite, got %v", testKey, err)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, err = s.Get("nonexistent-key")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected NotFound for nonexistent key, got %v", err)
	}

	retrievedValue, _ := s.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := s.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testDelete(t *testing.T, s store.IStore) {
	testKey := "delete-key"
	mustSet(t, s, testKey, []byte("value"))

	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}

	if _, err := s.Get(testKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected NotFound after Delete, got %v", err)
	}

	if err := s.Delete(testKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected NotFound when deleting a missing key, got %v", err)
	}

	// the key can be written again after a delete
	mustSet(t, s, testKey, []byte("again"))
	if result, err := s.Get(testKey); err != nil || string(result) != "again" {
		t.Errorf("Expected value again after re-set, got %s (%v)", result, err)
	}
}

func testHas(t *testing.T, s store.IStore) {
	testKey := "has-key"

	has, err := s.Has(testKey)
	if err != nil || has {
		t.Errorf("Expected Has to be false before Set, got %v (%v)", has, err)
	}

	mustSet(t, s, testKey, []byte("value"))

	has, err = s.Has(testKey)
	if err != nil || !has {
		t.Errorf("Expected Has to be true after Set, got %v (%v)", has, err)
	}

	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}

	has, err = s.Has(testKey)
	if err != nil || has {
		t.Errorf("Expected Has to be false after Delete, got %v (%v)", has, err)
	}
}

func testKeysLen(t *testing.T, s store.IStore) {
	if n, err := s.Len(); err != nil || n != 0 {
		t.Errorf("Expected empty store, got %d (%v)", n, err)
	}

	expected := []string{"alpha", "beta", "gamma", "al", "alpine"}
	for _, key := range expected {
		mustSet(t, s, key, []byte(key))
	}
	sort.Strings(expected)

	keys := collectKeys(t, s)
	if fmt.Sprint(keys) != fmt.Sprint(expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}

	if n, err := s.Len(); err != nil || n != len(expected) {
		t.Errorf("Expected Len %d, got %d (%v)", len(expected), n, err)
	}

	// the iterator can be restarted and stopped early
	count := 0
	for range s.Keys() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("Expected early stop after one key, got %d", count)
	}

	if err := s.Delete("beta"); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	if n, err := s.Len(); err != nil || n != len(expected)-1 {
		t.Errorf("Expected Len %d after Delete, got %d (%v)", len(expected)-1, n, err)
	}

	// stray files are not entries
	root := s.Path()
	strays := map[string][]byte{
		filepath.Join(root, "README"):              []byte("root level file"),
		filepath.Join(root, "al", "notes.txt"):     []byte("no sentinel"),
		filepath.Join(root, "long", "entry_"):      []byte("shard name too long"),
		filepath.Join(root, "al", "nested", "x_"):  []byte("nested directory"),
		filepath.Join(root, "al", ".hidden-tmp~"):  []byte("temp file"),
		filepath.Join(root, "be", "placeholder.x"): []byte("empty shard"),
	}
	for path, content := range strays {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create stray dir: %v", err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("Failed to create stray file: %v", err)
		}
	}
	if n, err := s.Len(); err != nil || n != len(expected)-1 {
		t.Errorf("Expected strays to be skipped (Len %d), got %d (%v)", len(expected)-1, n, err)
	}
}

func testReopen(t *testing.T, factory StoreFactory) {
	root := t.TempDir()

	s1, err := factory(root)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	numEntries := 200
	for i := 0; i < numEntries; i++ {
		mustSet(t, s1, fmt.Sprintf("reopen-test-key-%d", i), []byte(fmt.Sprintf("reopen-test-value-%d", i)))
	}

	s2, err := factory(root)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("reopen-test-key-%d", i)
		expectedValue := []byte(fmt.Sprintf("reopen-test-value-%d", i))

		actualValue, err := s2.Get(key)
		if err != nil {
			t.Errorf("Key %s not found after reopen: %v", key, err)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	if n, err := s2.Len(); err != nil || n != numEntries {
		t.Errorf("Expected Len %d after reopen, got %d (%v)", numEntries, n, err)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	emptyValueKey := "empty-value-key"
	mustSet(t, s, emptyValueKey, []byte{})

	result, err := s.Get(emptyValueKey)
	if err != nil {
		t.Errorf("Key for empty value not found after Set: %v", err)
	} else if len(result) != 0 {
		t.Errorf("Empty value mismatch: %v", result)
	}

	nilValueKey := "nil-value-key"
	mustSet(t, s, nilValueKey, nil)

	result, err = s.Get(nilValueKey)
	if err != nil {
		t.Errorf("Key for nil value not found after Set: %v", err)
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	shortKey := "ab"
	mustSet(t, s, shortKey, []byte("two byte key"))
	if result, err := s.Get(shortKey); err != nil || string(result) != "two byte key" {
		t.Errorf("Two byte key mismatch: %s (%v)", result, err)
	}

	unicodeKey := "ключ-🔑"
	mustSet(t, s, unicodeKey, []byte("unicode"))
	if result, err := s.Get(unicodeKey); err != nil || string(result) != "unicode" {
		t.Errorf("Unicode key mismatch: %s (%v)", result, err)
	}

	if t.Failed() {
		return
	}

	largeKey := string(bytes.Repeat([]byte("k"), 200))
	mustSet(t, s, largeKey, []byte("value for large key"))
	if result, err := s.Get(largeKey); err != nil || string(result) != "value for large key" {
		t.Errorf("Large key mismatch (%v)", err)
	}

	largeValueKey := "large-value-key"
	largeValue := make([]byte, 2*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	mustSet(t, s, largeValueKey, largeValue)

	result, err = s.Get(largeValueKey)
	if err != nil {
		t.Errorf("Key for large value not found after Set: %v", err)
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: got %d bytes, expected %d", len(result), len(largeValue))
	}
}

func testInvalidKeys(t *testing.T, s store.IStore) {
	for _, key := range []string{"", "a", "ab/cd", `ab\cd`, "ab\x00cd", "..", "../escape"} {
		if err := s.Set(key, []byte("value")); !errors.Is(err, store.ErrInvalidKey) {
			t.Errorf("Expected InvalidKey for Set(%q), got %v", key, err)
		}
		if _, err := s.Get(key); !errors.Is(err, store.ErrInvalidKey) {
			t.Errorf("Expected InvalidKey for Get(%q), got %v", key, err)
		}
		if _, err := s.Has(key); !errors.Is(err, store.ErrInvalidKey) {
			t.Errorf("Expected InvalidKey for Has(%q), got %v", key, err)
		}
		if err := s.Delete(key); !errors.Is(err, store.ErrInvalidKey) {
			t.Errorf("Expected InvalidKey for Delete(%q), got %v", key, err)
		}
	}

	if n, err := s.Len(); err != nil || n != 0 {
		t.Errorf("Expected no entries after invalid writes, got %d (%v)", n, err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(s.Path()), "escape_")); err == nil {
		t.Errorf("Invalid key escaped the root directory")
	}
}

func testShardCoexistence(t *testing.T, s store.IStore) {
	// all keys share the shard directory "ab"
	keys := []string{"ab", "abc", "abcd", "ab_", "ab-1", "ab.x"}
	for i, key := range keys {
		mustSet(t, s, key, []byte(fmt.Sprintf("value-%d", i)))
	}

	for i, key := range keys {
		result, err := s.Get(key)
		if err != nil {
			t.Errorf("Key %q not found: %v", key, err)
			continue
		}
		if string(result) != fmt.Sprintf("value-%d", i) {
			t.Errorf("Value mismatch for key %q: %s", key, result)
		}
	}

	if err := s.Delete("abc"); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	for _, key := range []string{"ab", "abcd", "ab_"} {
		if has, _ := s.Has(key); !has {
			t.Errorf("Deleting abc removed sibling %q", key)
		}
	}

	stored := collectKeys(t, s)
	if len(stored) != len(keys)-1 {
		t.Errorf("Expected %d keys, got %v", len(keys)-1, stored)
	}
}

func testCollisionHandling(t *testing.T, s store.IStore) {
	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		mustSet(t, s, fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, err := s.Get(key)
		if err != nil {
			t.Errorf("Key %s not found: %v", key, err)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		if err := s.Delete(fmt.Sprintf("%s%d", prefix, i)); err != nil {
			t.Errorf("Unexpected error during Delete: %v", err)
		}
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		has, err := s.Has(key)
		if err != nil {
			t.Errorf("Unexpected error during Has: %v", err)
			continue
		}
		if i%2 == 0 && has {
			t.Errorf("Key %s should be deleted", key)
		} else if i%2 == 1 && !has {
			t.Errorf("Key %s should still exist", key)
		}
	}
}

func testConcurrentSameKey(t *testing.T, s store.IStore) {
	testKey := "contended-key"
	numWriters := 8
	numRounds := 50

	values := make(map[string]bool, numWriters)
	for w := 0; w < numWriters; w++ {
		values[fmt.Sprintf("writer-%d-%s", w, bytes.Repeat([]byte{byte('a' + w)}, 512))] = true
	}
	mustSet(t, s, testKey, []byte(fmt.Sprintf("writer-0-%s", bytes.Repeat([]byte{'a'}, 512))))

	var wg sync.WaitGroup
	var torn atomic.Int32
	wg.Add(numWriters * 2)

	for w := 0; w < numWriters; w++ {
		value := []byte(fmt.Sprintf("writer-%d-%s", w, bytes.Repeat([]byte{byte('a' + w)}, 512)))
		go func() {
			defer wg.Done()
			for i := 0; i < numRounds; i++ {
				if err := s.Set(testKey, value); err != nil {
					t.Errorf("Unexpected error during Set: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < numRounds; i++ {
				result, err := s.Get(testKey)
				if err != nil {
					t.Errorf("Unexpected error during Get: %v", err)
					return
				}
				if !values[string(result)] {
					torn.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if torn.Load() > 0 {
		t.Errorf("Observed %d reads that match no writer", torn.Load())
	}

	result, err := s.Get(testKey)
	if err != nil || !values[string(result)] {
		t.Errorf("Final value is not one of the written values (%v)", err)
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 2_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			valueSize := 64
			if i%10 == 0 {
				valueSize = 1024
			}
			value = make([]byte, valueSize)
			for j := 0; j < valueSize; j++ {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	allKeys := make(map[string]bool)
	for _, op := range operations {
		allKeys[op.key] = true
	}

	numWorkers := 8
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var errorCount atomic.Int32
	opsPerWorker := numOperations / numWorkers

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				var err error
				switch op.op {
				case "set":
					err = s.Set(op.key, op.value)
				case "get":
					_, err = s.Get(op.key)
				case "delete":
					err = s.Delete(op.key)
				}
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					errorCount.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()

	if errorCount.Load() > 0 {
		t.Fatalf("Test had %d errors during parallel operations", errorCount.Load())
	}

	// after the writers finished every key is either fully present or absent
	present := 0
	for key := range allKeys {
		has, err := s.Has(key)
		if err != nil {
			t.Errorf("Unexpected error during Has(%s): %v", key, err)
			continue
		}
		_, getErr := s.Get(key)
		if has && getErr != nil {
			t.Errorf("Consistency error: Key %s exists but could not be retrieved: %v", key, getErr)
		}
		if !has && !errors.Is(getErr, store.ErrNotFound) {
			t.Errorf("Consistency error: Key %s is absent but Get returned %v", key, getErr)
		}
		if has {
			present++
		}
	}

	if n, err := s.Len(); err != nil || n != present {
		t.Errorf("Expected Len %d, got %d (%v)", present, n, err)
	}
}
