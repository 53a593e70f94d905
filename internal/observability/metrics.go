package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for engine activity.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64
	sweepExpired    int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters by domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts lifecycle edges taken.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[from+"->"+to]++
}

// RecordSweep accumulates tickets expired by the deadline sweeper.
func (m *Metrics) RecordSweep(expired int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepExpired += int64(expired)
}

// Snapshot returns copies of the counters for reporting endpoints.
func (m *Metrics) Snapshot() (requests, errors, transitions map[string]int64, sweepExpired int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests = copyCounts(m.requestCount)
	errors = copyCounts(m.errorCount)
	transitions = copyCounts(m.transitionCount)
	return requests, errors, transitions, m.sweepExpired
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
