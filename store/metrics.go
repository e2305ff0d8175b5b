package store

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

const (
	opPut      = "put"
	opRetrieve = "retrieve"
	opRemove   = "remove"
)

// storeMetrics holds the per-operation instruments of a Store.
type storeMetrics struct {
	requests map[string]*metrics.Counter
	errors   map[string]*metrics.Counter
	duration map[string]*metrics.Histogram
	missing  *metrics.Counter
}

func newStoreMetrics(set *metrics.Set) *storeMetrics {
	m := &storeMetrics{
		requests: make(map[string]*metrics.Counter),
		errors:   make(map[string]*metrics.Counter),
		duration: make(map[string]*metrics.Histogram),
		missing:  set.GetOrCreateCounter("dine_store_missing_total"),
	}
	for _, op := range []string{opPut, opRetrieve, opRemove} {
		m.requests[op] = set.GetOrCreateCounter(fmt.Sprintf(`dine_store_requests_total{op=%q}`, op))
		m.errors[op] = set.GetOrCreateCounter(fmt.Sprintf(`dine_store_errors_total{op=%q}`, op))
		m.duration[op] = set.GetOrCreateHistogram(fmt.Sprintf(`dine_store_batch_duration_seconds{op=%q}`, op))
	}
	return m
}

func (m *storeMetrics) observe(op string, requests int, start time.Time, err error) {
	m.requests[op].Add(requests)
	m.duration[op].UpdateDuration(start)
	if err != nil {
		m.errors[op].Inc()
	}
}
