package internal

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
)

func TestLockTableIndex(t *testing.T) {
	table := NewLockTable(16)
	if table.Size() != 16 {
		t.Fatalf("Expected 16 slots, got %d", table.Size())
	}

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("key-%d", i)
		idx := table.Index(key)
		if idx < 0 || idx >= 16 {
			t.Fatalf("Index %d out of range for key %s", idx, key)
		}
		if idx != table.Index(key) {
			t.Fatalf("Index for key %s is not stable", key)
		}
		if table.Slot(key) != table.Slot(key) {
			t.Fatalf("Slot for key %s is not stable", key)
		}
	}

	if NewLockTable(0).Size() != 1 {
		t.Errorf("Expected a table with at least one slot")
	}
}

func TestLockTableSpread(t *testing.T) {
	table := NewLockTable(8)
	counts := make([]float64, 8)
	for i := 0; i < 8000; i++ {
		counts[table.Index(fmt.Sprintf("ab%d", i))]++
	}

	// keys sharing a shard prefix must still spread over all slots
	dist := NewDistributionStats(counts)
	if dist.Min == 0 {
		t.Errorf("Expected every slot to be used, got %v", counts)
	}
	if dist.DistributionQuality < 0.7 {
		t.Errorf("Poor slot distribution: %+v", dist)
	}
}

func TestValidateKey(t *testing.T) {
	testCases := []struct {
		key     string
		isValid bool
	}{
		{key: "ab", isValid: true},
		{key: "abc", isValid: true},
		{key: "a", isValid: false},
		{key: "", isValid: false},
		{key: "ab/cd", isValid: false},
		{key: `ab\cd`, isValid: false},
		{key: "ab\x00", isValid: false},
		{key: "..", isValid: false},
		{key: "..x", isValid: false},
		{key: ".x", isValid: true},
		{key: "x..", isValid: true},
		{key: "äö", isValid: true},
		{key: "日", isValid: false},
		{key: "ä", isValid: false},
		{key: "日本語", isValid: true},
	}

	for _, tc := range testCases {
		err := ValidateKey(tc.key)
		if tc.isValid && err != nil {
			t.Errorf("Expected key %q to be valid, got %v", tc.key, err)
		}
		if !tc.isValid && err == nil {
			t.Errorf("Expected key %q to be invalid", tc.key)
		}
	}
}

func TestEntryPathRoundTrip(t *testing.T) {
	root := filepath.Join("tmp", "root")

	dir, file, err := EntryPath(root, "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dir != filepath.Join(root, "he") {
		t.Errorf("Unexpected shard dir %s", dir)
	}
	if file != filepath.Join(root, "he", "llo_") {
		t.Errorf("Unexpected entry file %s", file)
	}

	for _, tc := range []struct {
		key, shard, file string
	}{
		{key: "日本語", shard: "日本", file: "語_"},
		{key: "äö", shard: "äö", file: "_"},
		{key: "aä😀x", shard: "aä", file: "😀x_"},
	} {
		dir, file, err := EntryPath(root, tc.key)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", tc.key, err)
		}
		if dir != filepath.Join(root, tc.shard) || file != filepath.Join(root, tc.shard, tc.file) {
			t.Errorf("Unexpected layout for %q: %s %s", tc.key, dir, file)
		}
	}

	for _, key := range []string{"hello", "ab", "x_y_", "__", "日本語", "äö"} {
		dir, file, err := EntryPath(root, key)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", key, err)
		}
		got, ok := KeyFromEntry(filepath.Base(dir), filepath.Base(file))
		if !ok || got != key {
			t.Errorf("Expected key %q back, got %q (%v)", key, got, ok)
		}
	}
}

func TestKeyFromEntryStrays(t *testing.T) {
	strays := [][2]string{
		{"ab", "notes.txt"},
		{"abc", "x_"},
		{"a", "x_"},
		{"..", "x_"},
		{"日本語", "x_"},
		{"日", "x_"},
	}
	for _, s := range strays {
		if key, ok := KeyFromEntry(s[0], s[1]); ok {
			t.Errorf("Expected %s/%s to be skipped, got key %q", s[0], s[1], key)
		}
	}
}

func TestSplitKey(t *testing.T) {
	testCases := []struct {
		key   string
		shard string
		rest  string
		ok    bool
	}{
		{key: "hello", shard: "he", rest: "llo", ok: true},
		{key: "ab", shard: "ab", ok: true},
		{key: "日本語", shard: "日本", rest: "語", ok: true},
		{key: "日", ok: false},
		{key: "", ok: false},
	}

	for _, tc := range testCases {
		shard, rest, ok := SplitKey(tc.key)
		if ok != tc.ok || shard != tc.shard || rest != tc.rest {
			t.Errorf("SplitKey(%q) = %q, %q, %v", tc.key, shard, rest, ok)
		}
	}
}

func TestStats(t *testing.T) {
	stats := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if stats.Mean != 5 || stats.StdDeviation != 2 || stats.Min != 2 || stats.Max != 9 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if math.Abs(stats.MinMaxRatio-2.0/9.0) > 1e-9 {
		t.Errorf("Unexpected ratio %f", stats.MinMaxRatio)
	}

	even := NewDistributionStats([]float64{10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("Expected perfect distribution, got %f", even.DistributionQuality)
	}

	if NewStats(nil) != (Stats{}) {
		t.Errorf("Expected zero stats for no values")
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if h.MedianEstimate() != 0 || h.AverageSize() != 0 {
		t.Errorf("Expected zero estimates for empty histogram")
	}

	for i := 0; i < 90; i++ {
		h.AddSample(100) // bucket (64, 256]
	}
	for i := 0; i < 10; i++ {
		h.AddSample(10000) // bucket (4096, 16384]
	}

	if h.Count() != 100 || h.Sum() != 109000 {
		t.Errorf("Unexpected count/sum %d/%d", h.Count(), h.Sum())
	}
	if h.AverageSize() != 1090 {
		t.Errorf("Unexpected average %d", h.AverageSize())
	}
	if h.MedianEstimate() != (64+256)/2 {
		t.Errorf("Unexpected median estimate %d", h.MedianEstimate())
	}
	if h.PercentileEstimate(95) != (4096+16384)/2 {
		t.Errorf("Unexpected p95 estimate %d", h.PercentileEstimate(95))
	}

	h.AddSample(1 << 40)
	if h.PercentileEstimate(100) != 4294967296*2 {
		t.Errorf("Unexpected p100 estimate %d", h.PercentileEstimate(100))
	}
}
