package kv

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/db/engines/maple"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/lib/store/mstore"
	"github.com/rcrowley/go-metrics"
)

func newStore() store.IStore {
	return mstore.NewMemoryStore(func() db.KVDB { return maple.NewMapleDB(nil) }, nil)
}

func TestCommands(t *testing.T) {
	s := newStore()
	var out bytes.Buffer

	if err := runSet(&out, s, "n", "1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out.String(), "key=n created") {
		t.Errorf("Unexpected output: %q", out.String())
	}

	out.Reset()
	if err := runAdd(&out, s, []string{"n", "2.5"}, 1); err != nil {
		t.Fatalf("incr failed: %v", err)
	}
	if !strings.Contains(out.String(), "value:        3.5") {
		t.Errorf("Unexpected output: %q", out.String())
	}

	out.Reset()
	if err := runAdd(&out, s, []string{"n"}, -1); err != nil {
		t.Fatalf("decr failed: %v", err)
	}
	if !strings.Contains(out.String(), "value:        2.5") {
		t.Errorf("Unexpected output: %q", out.String())
	}

	if err := runAdd(&out, s, []string{"n", "x"}, 1); err == nil {
		t.Error("Expected error for a non-numeric amount")
	}

	out.Reset()
	if err := runSetLock(&out, s, "n", true); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	out.Reset()
	if err := runSet(&out, s, "n", "9"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out.String(), "is locked, value unchanged") {
		t.Errorf("Unexpected output: %q", out.String())
	}
	if err := runAdd(&out, s, []string{"n"}, 1); err == nil {
		t.Error("Expected incr on a locked key to fail")
	}

	out.Reset()
	if err := runSetLock(&out, s, "n", false); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	out.Reset()
	if err := runSet(&out, s, "n", "9"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out.String(), "key=n updated, update count=6") {
		t.Errorf("Unexpected output: %q", out.String())
	}

	if err := runSetLock(&out, s, "missing", true); err == nil {
		t.Error("Expected lock of a missing key to fail")
	}

	out.Reset()
	if err := runGet(&out, s, "missing"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out.String(), "found=false") {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestPerfTests(t *testing.T) {
	s := newStore()
	opts := perfOptions{Ops: 200, Threads: 4, Keys: 10, LargeValueSizeKB: 1, Skip: []string{"set-large"}}
	registry := metrics.NewRegistry()

	results := make([]perfResult, 0)
	for _, test := range perfTests(opts) {
		r := runPerfTest(s, test, opts, registry)
		results = append(results, r)

		if test.name == "set-large" {
			if !r.Skipped {
				t.Error("set-large should be skipped")
			}
			continue
		}
		if r.Skipped {
			t.Errorf("%s was skipped", test.name)
			continue
		}
		if r.Timer.Count() != int64(opts.Ops) {
			t.Errorf("%s: expected %d timed ops, got %d", test.name, opts.Ops, r.Timer.Count())
		}
		if r.Errors != 0 {
			t.Errorf("%s: %d errors", test.name, r.Errors)
		}
		if r.OpsPerSec() <= 0 {
			t.Errorf("%s: expected a positive throughput", test.name)
		}
	}

	// Test keys are removed after every test
	info, err := s.GetDBInfo()
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	if info.Keys != 0 {
		t.Errorf("Expected all test keys to be deleted, %d left", info.Keys)
	}

	var out bytes.Buffer
	for _, r := range results {
		printResult(&out, r)
	}
	if !strings.Contains(out.String(), "set-large     skipped") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	var buf bytes.Buffer
	if err := writeResultsToCSV(&buf, results, opts, []string{"localhost:8080", "100", "binary", "tcp"}); err != nil {
		t.Fatalf("writeResultsToCSV failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Reading CSV failed: %v", err)
	}
	if len(rows) != len(results)+1 {
		t.Fatalf("Expected %d rows, got %d", len(results)+1, len(rows))
	}
	if rows[1][0] != "set" || rows[1][1] != "200" || rows[1][11] != "binary" {
		t.Errorf("Unexpected row: %v", rows[1])
	}
}

func TestShouldSkip(t *testing.T) {
	if !shouldSkip("get", []string{"set", " get"}) {
		t.Error("Expected get to be skipped")
	}
	if shouldSkip("add", []string{""}) {
		t.Error("Expected add not to be skipped")
	}
}
