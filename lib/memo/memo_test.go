package memo

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/store"
)

type point struct {
	X, Y int
}

func increment(x int) (int, error) {
	return x + 1, nil
}

func TestCallReusesStoredResult(t *testing.T) {
	var calls atomic.Int32
	f := func(x int) (int, error) {
		calls.Add(1)
		return x + 1, nil
	}

	dir := t.TempDir()
	cache, err := Wrap(f, &Options{Name: "f", Path: dir})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}

	result, err := cache.Call(5)
	if err != nil || result != 6 {
		t.Fatalf("Expected 6, got %d (%v)", result, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("Expected one call, got %d", calls.Load())
	}

	result, err = cache.Call(5)
	if err != nil || result != 6 {
		t.Fatalf("Expected 6, got %d (%v)", result, err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected stored result to be reused, function was called %d times", calls.Load())
	}

	if stats := cache.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	// a new cache on the same directory sees the entry
	again, err := Wrap(f, &Options{Name: "f", Path: dir})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}
	if result, err := again.Func()(5); err != nil || result != 6 {
		t.Errorf("Expected 6, got %d (%v)", result, err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected entry to survive the cache instance, function was called %d times", calls.Load())
	}

	if result, err := cache.Call(6); err != nil || result != 7 || calls.Load() != 2 {
		t.Errorf("Expected a new computation for new args, got %d (%v), %d calls", result, err, calls.Load())
	}
}

func TestEntryFile(t *testing.T) {
	dir := t.TempDir()
	cache, err := Wrap(increment, &Options{Name: "inc", Path: dir})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}
	if _, err := cache.Call(41); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	key, err := cache.Key(41)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}\.json$`).MatchString(key) {
		t.Errorf("Unexpected key format %s", key)
	}

	content, err := os.ReadFile(filepath.Join(dir, key[:2], key[2:]+"_"))
	if err != nil {
		t.Fatalf("Expected entry file for %s: %v", key, err)
	}
	expected := `{"inputs":{"name":"inc","args":41},"output":42}`
	if string(content) != expected {
		t.Errorf("Expected entry %s, got %s", expected, content)
	}
}

func TestKeys(t *testing.T) {
	a, _ := Wrap(increment, &Options{Name: "a", Path: t.TempDir()})
	b, _ := Wrap(increment, &Options{Name: "b", Path: t.TempDir()})

	k1, _ := a.Key(1)
	k2, _ := a.Key(1)
	k3, _ := a.Key(2)
	k4, _ := b.Key(1)
	if k1 != k2 {
		t.Errorf("Expected stable keys, got %s and %s", k1, k2)
	}
	if k1 == k3 || k1 == k4 {
		t.Errorf("Expected keys to depend on args and name")
	}

	direct, err := KeyFor("a", 1, "json")
	if err != nil || direct != k1 {
		t.Errorf("Expected KeyFor to match the cache key, got %s (%v)", direct, err)
	}

	// map argument order does not change the key
	m1, _ := KeyFor("m", map[string]int{"x": 1, "y": 2}, "json")
	m2, _ := KeyFor("m", map[string]int{"y": 2, "x": 1}, "json")
	if m1 != m2 {
		t.Errorf("Expected canonical map keys")
	}

	g, _ := Wrap(increment, &Options{Name: "a", Path: t.TempDir(), Serialization: codec.SerializationGob})
	kg, _ := g.Key(1)
	if !strings.HasSuffix(kg, ".gob") || strings.TrimSuffix(kg, ".gob") != strings.TrimSuffix(k1, ".json") {
		t.Errorf("Expected same digest with gob extension, got %s vs %s", kg, k1)
	}
}

func TestStrategies(t *testing.T) {
	for _, serialization := range []string{codec.SerializationJSON, codec.SerializationGob, codec.SerializationMsgpack} {
		t.Run(serialization, func(t *testing.T) {
			calls := 0
			dist := func(p point) (map[string]int, error) {
				calls++
				return map[string]int{"sum": p.X + p.Y, "diff": p.X - p.Y}, nil
			}

			cache, err := Wrap(dist, &Options{Name: "dist", Path: t.TempDir(), Serialization: serialization, Compression: codec.CompressionZlib})
			if err != nil {
				t.Fatalf("Failed to wrap function: %v", err)
			}

			for i := 0; i < 3; i++ {
				out, err := cache.Call(point{X: 5, Y: 3})
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if out["sum"] != 8 || out["diff"] != 2 {
					t.Errorf("Unexpected output %v", out)
				}
			}
			if calls != 1 {
				t.Errorf("Expected one computation, got %d", calls)
			}

			key, _ := cache.Key(point{X: 5, Y: 3})
			if !strings.HasSuffix(key, "."+serialization) {
				t.Errorf("Expected %s extension, got %s", serialization, key)
			}
		})
	}
}

func TestConfiguration(t *testing.T) {
	for _, serialization := range []string{"none", "raw", "pickle"} {
		if _, err := Wrap(increment, &Options{Path: t.TempDir(), Serialization: serialization}); !errors.Is(err, store.ErrConfiguration) {
			t.Errorf("Expected ConfigurationError for %s, got %v", serialization, err)
		}
	}

	var nilFn func(int) (int, error)
	if _, err := Wrap(nilFn, nil); !errors.Is(err, store.ErrConfiguration) {
		t.Errorf("Expected ConfigurationError for nil function, got %v", err)
	}

	cache, err := Wrap(increment, &Options{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}
	if !strings.HasSuffix(cache.Name(), "memo.increment") {
		t.Errorf("Expected runtime function name, got %s", cache.Name())
	}

	if got := DefaultPath(cache.Name(), "json"); got != "./_fkvcache_memo.increment_json" {
		t.Errorf("Unexpected default path %s", got)
	}
	if got := DefaultPath("weird name/with:chars", "gob"); got != "./_fkvcache_with_chars_gob" {
		t.Errorf("Unexpected default path %s", got)
	}
}

func TestErrorsAreNotStored(t *testing.T) {
	calls := 0
	failing := func(x int) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("temporary failure")
		}
		return x * 2, nil
	}

	cache, err := Wrap(failing, &Options{Name: "failing", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}

	if _, err := cache.Call(3); err == nil || err.Error() != "temporary failure" {
		t.Errorf("Expected the function error, got %v", err)
	}
	if n, _ := os.ReadDir(cache.Path()); len(n) != 0 {
		t.Errorf("Expected nothing to be stored after a failure")
	}

	if result, err := cache.Call(3); err != nil || result != 6 {
		t.Errorf("Expected 6 after retry, got %d (%v)", result, err)
	}
	if calls != 2 {
		t.Errorf("Expected two calls, got %d", calls)
	}
}

func TestUnencodableArgs(t *testing.T) {
	calls := 0
	fn := func(ch chan int) (int, error) {
		calls++
		return 0, nil
	}

	cache, err := Wrap(fn, &Options{Name: "chan", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}
	if _, err := cache.Call(make(chan int)); !errors.Is(err, store.ErrEncoding) {
		t.Errorf("Expected EncodingIncompatibility, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected the function not to run, got %d calls", calls)
	}
}

func TestCollapseConcurrent(t *testing.T) {
	var calls atomic.Int32
	slow := func(x int) (int, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return x * x, nil
	}

	cache, err := Wrap(slow, &Options{Name: "slow", Path: t.TempDir(), CollapseConcurrent: true})
	if err != nil {
		t.Fatalf("Failed to wrap function: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if result, err := cache.Call(7); err != nil || result != 49 {
				t.Errorf("Expected 49, got %d (%v)", result, err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("Expected one computation, got %d", calls.Load())
	}
}
