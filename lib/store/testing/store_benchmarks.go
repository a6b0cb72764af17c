package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/fKV/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, newStore(b, factory))
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, newStore(b, factory))
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, newStore(b, factory))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, newStore(b, factory))
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, newStore(b, factory))
		})

		b.Run("Has", func(b *testing.B) {
			benchmarkHas(b, newStore(b, factory))
		})

		b.Run("Has(not)", func(b *testing.B) {
			benchmarkHasNot(b, newStore(b, factory))
		})

		b.Run("Len", func(b *testing.B) {
			benchmarkLen(b, newStore(b, factory))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, newStore(b, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prefill writes n small entries named test-key-<i>
func prefill(b *testing.B, s store.IStore, n int) []string {
	b.Helper()
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		mustSet(b, s, keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}
	return keys
}

// Benchmark for Set operation
func benchmarkSet(b *testing.B, s store.IStore) {
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddInt64(&counter, 1)
			_ = s.Set(fmt.Sprintf("test-key-%d", i), []byte(fmt.Sprintf("test-value-%d", i)))
		}
	})
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, s store.IStore) {
	numKeys := 1000
	keys := prefill(b, s, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_ = s.Set(keys[counter%numKeys], []byte(fmt.Sprintf("test-value-%d", counter)))
			counter++
		}
	})
}

// Benchmark for Set operation with large values
func benchmarkSetLargeValue(b *testing.B, s store.IStore) {
	largeValue := make([]byte, 1*1024*1024) // 1MB
	for i := range largeValue {
		largeValue[i] = byte(i % 251)
	}
	var counter int64

	b.SetBytes(int64(len(largeValue)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			// bounded key space keeps the disk usage of long runs in check
			i := atomic.AddInt64(&counter, 1) % 64
			_ = s.Set(fmt.Sprintf("large-key-%d", i), largeValue)
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {
	numKeys := 1000
	keys := prefill(b, s, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = s.Get(keys[counter%numKeys])
			counter++
		}
	})
}

// Parallel benchmarking for Delete operation
func benchmarkDelete(b *testing.B, s store.IStore) {
	numKeys := 10000
	if b.N < numKeys {
		numKeys = b.N
	}
	keys := prefill(b, s, numKeys)

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys
			_ = s.Delete(keys[idx])
		}
	})
}

// Parallel benchmarking for Has operation (with key miss)
func benchmarkHasNot(b *testing.B, s store.IStore) {
	const key = "test-key"

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = s.Has(key)
		}
	})
}

// Parallel benchmarking for Has operation
func benchmarkHas(b *testing.B, s store.IStore) {
	numKeys := 1000
	keys := prefill(b, s, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = s.Has(keys[counter%numKeys])
			counter++
		}
	})
}

// Benchmark for the full directory walk of Len
func benchmarkLen(b *testing.B, s store.IStore) {
	prefill(b, s, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Len(); err != nil {
			b.Fatalf("Unexpected error during Len: %v", err)
		}
	}
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	numKeys := 1000
	keys := prefill(b, s, numKeys)

	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0

		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys

			// every 10th operation uses a new key
			key := keys[idx]
			if localCounter%10 == 0 {
				key = fmt.Sprintf("new-key-%d", localCounter)
			}

			switch localCounter % 4 {
			case 0:
				_, _ = s.Get(key)
			case 1:
				_ = s.Set(key, []byte(fmt.Sprintf("mixed-value-%d", localCounter)))
			case 2:
				_ = s.Delete(key)
			case 3:
				_, _ = s.Has(key)
			}

			localCounter++
		}
	})
}
