package kv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucid-kv/lucid/cmd/util"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for lucid servers",
		Long:    "Runs a fixed number of operations per test against the server and reports latency percentiles and throughput",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix = "__test"
	perfOpts      = perfOptions{}
)

// perfOptions configures a performance run
type perfOptions struct {
	Ops              int
	Threads          int
	Keys             int
	LargeValueSizeKB int
	Skip             []string
}

// perfTest is a single named benchmark. setup prepares the keys (may be nil),
// op runs one operation for the i-th request.
type perfTest struct {
	name  string
	setup func(s store.IStore, keys []string) error
	op    func(s store.IStore, key string, i int) error
}

// perfResult is the outcome of one perfTest
type perfResult struct {
	Name    string
	Skipped bool
	Errors  int64
	Elapsed time.Duration
	Timer   metrics.Timer // snapshot of the latencies
}

// OpsPerSec returns the throughput of the test
func (r perfResult) OpsPerSec() float64 {
	if r.Skipped || r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Timer.Count()) / r.Elapsed.Seconds()
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
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

	// Read the configuration from the command line flags and environment variables
	perfOpts = perfOptions{
		Ops:              viper.GetInt("ops"),
		Threads:          viper.GetInt("threads"),
		Keys:             viper.GetInt("keys"),
		LargeValueSizeKB: viper.GetInt("large-value-size"),
		Skip:             strings.Split(viper.GetString("skip"), ","),
	}
	if perfOpts.Ops < 1 || perfOpts.Threads < 1 || perfOpts.Keys < 1 {
		return fmt.Errorf("ops, threads and keys must be positive")
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	config := util.GetClientConfig()

	fmt.Fprintln(out, "Performance testing tool for lucid servers")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, config.String())
	fmt.Fprintf(out, "Threads: %d, Ops: %d, Keys: %d\n", perfOpts.Threads, perfOpts.Ops, perfOpts.Keys)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "starting tests...")

	registry := metrics.NewRegistry()
	results := make([]perfResult, 0)
	for _, test := range perfTests(perfOpts) {
		result := runPerfTest(rpcStore, test, perfOpts, registry)
		printResult(out, result)
		results = append(results, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		file, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer file.Close()

		meta := []string{
			strings.Join(config.Endpoints, ";"),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
		}
		if err := writeResultsToCSV(file, results, perfOpts, meta); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// setAll sets every key to value
func setAll(value []byte) func(s store.IStore, keys []string) error {
	return func(s store.IStore, keys []string) error {
		for _, k := range keys {
			if _, _, err := s.Set(k, value); err != nil {
				return err
			}
		}
		return nil
	}
}

func perfTests(opts perfOptions) []perfTest {
	largeValue := make([]byte, opts.LargeValueSizeKB*1024)

	return []perfTest{
		{
			name: "set",
			op: func(s store.IStore, key string, _ int) error {
				_, _, err := s.Set(key, []byte("test"))
				return err
			},
		},
		{
			name: "set-large",
			op: func(s store.IStore, key string, _ int) error {
				_, _, err := s.Set(key, largeValue)
				return err
			},
		},
		{
			name:  "get",
			setup: setAll([]byte("test")),
			op: func(s store.IStore, key string, _ int) error {
				_, _, err := s.Get(key)
				return err
			},
		},
		{
			name: "get-missing",
			op: func(s store.IStore, key string, _ int) error {
				_, _, err := s.Get(key)
				return err
			},
		},
		{
			name:  "add",
			setup: setAll([]byte("0")),
			op: func(s store.IStore, key string, _ int) error {
				_, err := s.Add(key, 1)
				return err
			},
		},
		{
			name:  "lock",
			setup: setAll([]byte("test")),
			op: func(s store.IStore, key string, i int) error {
				_, err := s.SetLock(key, i%2 == 0)
				return err
			},
		},
		{
			name:  "delete",
			setup: setAll([]byte("test")),
			op: func(s store.IStore, key string, _ int) error {
				return s.Delete(key)
			},
		},
		{
			name:  "mixed",
			setup: setAll([]byte("1")),
			op: func(s store.IStore, key string, i int) error {
				var err error
				switch i % 5 {
				case 0: // set
					_, _, err = s.Set(key, []byte("1"))
				case 1: // get
					_, _, err = s.Get(key)
				case 2: // add
					_, err = s.Add(key, 1)
				case 3: // lock toggle
					_, err = s.SetLock(key, i%2 == 0)
				case 4: // delete
					err = s.Delete(key)
				}
				return err
			},
		},
	}
}

// runPerfTest runs opts.Ops operations of test spread over opts.Threads goroutines
// and records the latency of every operation in a timer of registry
func runPerfTest(s store.IStore, test perfTest, opts perfOptions, registry metrics.Registry) perfResult {
	result := perfResult{Name: test.name}
	if shouldSkip(test.name, opts.Skip) {
		result.Skipped = true
		result.Timer = metrics.NilTimer{}
		return result
	}

	keys := getKeys(test.name, opts.Keys)

	// cleanup
	defer func() {
		for _, k := range keys {
			if err := s.Delete(k); err != nil {
				Logger.Warningf("(%s) - error deleting key: %v", test.name, err)
			}
		}
	}()

	if test.setup != nil {
		if err := test.setup(s, keys); err != nil {
			Logger.Errorf("(%s) - setup failed: %v", test.name, err)
			result.Skipped = true
			result.Timer = metrics.NilTimer{}
			return result
		}
	}

	timer := metrics.GetOrRegisterTimer("lucid.perf."+test.name, registry)
	errCounter := metrics.GetOrRegisterCounter("lucid.perf."+test.name+".errors", registry)

	var next atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < opts.Threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= opts.Ops {
					return
				}
				opStart := time.Now()
				err := test.op(s, keys[i%len(keys)], i)
				timer.UpdateSince(opStart)
				if err != nil {
					errCounter.Inc(1)
					Logger.Debugf("(%s) - operation failed: %v", test.name, err)
				}
			}
		}()
	}
	wg.Wait()

	result.Elapsed = time.Since(start)
	result.Errors = errCounter.Count()
	result.Timer = timer.Snapshot()
	return result
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string, skip []string) bool {
	// Check if the test is in the skip list
	for _, s := range skip {
		if test == strings.TrimSpace(s) {
			return true
		}
	}
	return false
}

// getKeys creates the test keys of a benchmark
func getKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(w io.Writer, r perfResult) {
	if r.Skipped {
		fmt.Fprintf(w, "%-14sskipped\n", r.Name)
		return
	}

	ps := r.Timer.Percentiles([]float64{0.5, 0.99})
	fmt.Fprintf(w, "%-14s%8d ops\tmean %-12s p50 %-12s p99 %-12s max %-12s %10.0f ops/sec\terrors %d\n",
		r.Name,
		r.Timer.Count(),
		time.Duration(r.Timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(r.Timer.Max()),
		r.OpsPerSec(),
		r.Errors,
	)
}

// writeResultsToCSV writes benchmark results as CSV. meta holds the endpoints,
// shard id, serializer and transport of the run.
func writeResultsToCSV(w io.Writer, results []perfResult, opts perfOptions, meta []string) error {
	writer := csv.NewWriter(w)

	// Write header
	header := []string{
		"Test", "Ops", "Errors", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec", "Skipped",
		"Endpoints", "ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write test results
	for _, r := range results {
		ps := r.Timer.Percentiles([]float64{0.5, 0.99})
		row := []string{
			r.Name,
			strconv.FormatInt(r.Timer.Count(), 10),
			strconv.FormatInt(r.Errors, 10),
			fmt.Sprintf("%.0f", r.Timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(r.Timer.Max(), 10),
			fmt.Sprintf("%.0f", r.OpsPerSec()),
			strconv.FormatBool(r.Skipped),
		}
		row = append(row, meta...)
		row = append(row,
			strconv.Itoa(opts.Threads),
			strconv.Itoa(opts.LargeValueSizeKB),
			strconv.Itoa(opts.Keys),
		)

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", r.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
