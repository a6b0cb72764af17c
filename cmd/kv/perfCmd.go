package kv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for fKV stores",
		Long: `Runs set, get, has, delete and mixed workloads against the configured store
directory. Test keys are removed afterwards.`,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOpsPerThread     = 1000
	perfSkip             = make([]string, 0)
)

// perfResult summarizes the timer of one workload
type perfResult struct {
	Ops     int64
	Errors  int64
	Mean    time.Duration
	P50     time.Duration
	P99     time.Duration
	Rate    float64
	Skipped bool
}

// perfTest describes one workload. setup runs before the timer starts.
type perfTest struct {
	name  string
	setup bool
	op    func(key string, i int) error
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per goroutine and test"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOpsPerThread = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	s := kvStore.Store()

	fmt.Println("Performance testing tool for fKV stores")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(kvConfig.String())
	fmt.Printf("Threads: %d, operations per thread: %d\n", perfNumThreads, perfOpsPerThread)
	fmt.Println()

	fmt.Println("starting tests...")

	value := []byte("test")
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	tests := []perfTest{
		{name: "set", op: func(key string, _ int) error { return s.Set(key, value) }},
		{name: "set-large", op: func(key string, _ int) error { return s.Set(key, largeValue) }},
		{name: "get", setup: true, op: func(key string, _ int) error { _, err := s.Get(key); return err }},
		{name: "has", setup: true, op: func(key string, _ int) error { _, err := s.Has(key); return err }},
		{name: "has-not", op: func(key string, _ int) error { _, err := s.Has(key); return err }},
		{name: "delete", setup: true, op: func(key string, _ int) error {
			// later rounds find the key already deleted
			if err := s.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return nil
		}},
		{name: "mixed", setup: true, op: func(key string, i int) error {
			var err error
			switch i % 4 {
			case 0:
				err = s.Set(key, value)
			case 1:
				_, err = s.Get(key)
			case 2:
				err = s.Delete(key)
			case 3:
				_, err = s.Has(key)
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}},
	}

	registry := gometrics.NewRegistry()
	results := make(map[string]perfResult, len(tests))
	for _, test := range tests {
		if shouldSkip(test.name) {
			results[test.name] = perfResult{Skipped: true}
			printResult(test.name, results[test.name])
			continue
		}
		results[test.name] = runTest(s, registry, test)
		printResult(test.name, results[test.name])
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runTest runs one workload on perfNumThreads goroutines and collects its timings
func runTest(s store.IStore, registry gometrics.Registry, test perfTest) perfResult {
	getKey, iter := getKeys(test.name)
	if test.setup {
		iter(func(k string) {
			if err := s.Set(k, []byte("test")); err != nil {
				log.Warningf("(%s) - error setting key: %v", test.name, err)
			}
		})
	}
	defer iter(func(k string) {
		_ = s.Delete(k)
	})

	timer := gometrics.GetOrRegisterTimer(test.name+".latency", registry)
	errs := gometrics.GetOrRegisterCounter(test.name+".errors", registry)

	var wg sync.WaitGroup
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < perfOpsPerThread; i++ {
				start := time.Now()
				if err := test.op(getKey(offset+i), i); err != nil {
					errs.Inc(1)
					log.Warningf("(%s) - error: %v", test.name, err)
				}
				timer.UpdateSince(start)
			}
		}(t * perfKeySpread / perfNumThreads)
	}
	wg.Wait()

	snapshot := timer.Snapshot()
	return perfResult{
		Ops:    snapshot.Count(),
		Errors: errs.Count(),
		Mean:   time.Duration(snapshot.Mean()),
		P50:    time.Duration(snapshot.Percentile(0.5)),
		P99:    time.Duration(snapshot.Percentile(0.99)),
		Rate:   snapshot.RateMean(),
	}
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.Skipped {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	fmt.Printf("%-20s%s mean\t%s p50\t%s p99\t%.0f ops/sec\t%d errors\n",
		test, result.Mean, result.P50, result.P99, result.Rate, result.Errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Ops", "Errors", "MeanNs", "P50Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Compression", "LockSlots", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for test, result := range results {
		row := []string{
			test,
			strconv.FormatInt(result.Ops, 10),
			strconv.FormatInt(result.Errors, 10),
			strconv.FormatInt(result.Mean.Nanoseconds(), 10),
			strconv.FormatInt(result.P50.Nanoseconds(), 10),
			strconv.FormatInt(result.P99.Nanoseconds(), 10),
			fmt.Sprintf("%.0f", result.Rate),
			strconv.FormatBool(result.Skipped),
			kvConfig.Compression,
			strconv.Itoa(kvConfig.LockSlots),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", test, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
