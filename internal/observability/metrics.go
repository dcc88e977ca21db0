package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for requests, upstream failures
// and refresh cycles.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	refreshCycles   int64
	degradedMetrics int64
	upstreamFails   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		upstreamFails: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRefreshCycle counts completed working-set refreshes.
func (m *Metrics) RecordRefreshCycle() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCycles++
}

// RecordDegradedMetrics counts analytics requests served in degraded mode.
func (m *Metrics) RecordDegradedMetrics() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradedMetrics++
}

// RecordUpstreamFailure counts failed backend calls by operation and outcome.
func (m *Metrics) RecordUpstreamFailure(operation, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamFails[operation+"|"+outcome]++
}

// Snapshot returns a copy of the counters for the health endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.requestCount)+len(m.errorCount)+len(m.upstreamFails)+2)
	for k, v := range m.requestCount {
		out["request|"+k] = v
	}
	for k, v := range m.errorCount {
		out["error|"+k] = v
	}
	for k, v := range m.upstreamFails {
		out["upstream_failure|"+k] = v
	}
	out["refresh_cycles"] = m.refreshCycles
	out["degraded_metrics"] = m.degradedMetrics
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
