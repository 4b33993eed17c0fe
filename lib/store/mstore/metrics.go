package mstore

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Metric names and labels
// --------------------------------------------------------------------------

const (
	opGet     = "get"
	opSet     = "set"
	opDelete  = "delete"
	opSetLock = "set_lock"
	opAdd     = "add"
)

const (
	resultOk      = "ok"
	resultCreated = "created"
	resultMiss    = "miss"
	resultLocked  = "locked"
	resultInvalid = "invalid"
	resultError   = "error"
)

// storeMetrics records operation counts and latencies of one store in a metrics.Set
type storeMetrics struct {
	set  *metrics.Set
	name string
}

func newStoreMetrics(set *metrics.Set, name string, keys func() float64) *storeMetrics {
	set.GetOrCreateGauge(fmt.Sprintf(`lucid_store_keys{store=%q}`, name), keys)
	return &storeMetrics{set: set, name: name}
}

// count increments the counter for an operation outcome
func (m *storeMetrics) count(op, result string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`lucid_store_ops_total{store=%q,op=%q,result=%q}`, m.name, op, result)).Inc()
}

// observe records the duration of an operation started at start
func (m *storeMetrics) observe(op string, start time.Time) {
	m.set.GetOrCreateHistogram(fmt.Sprintf(`lucid_store_op_duration_seconds{store=%q,op=%q}`, m.name, op)).UpdateDuration(start)
}
