package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the auth surface.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	loginCount    map[string]int64
	denialCount   map[string]int64
	upstreamCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		loginCount:    make(map[string]int64),
		denialCount:   make(map[string]int64),
		upstreamCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
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

// RecordLogin counts login attempts by outcome.
func (m *Metrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCount[strconv.FormatBool(success)]++
}

// RecordDenial counts guard denials by path and reason
// (unauthenticated, admin_required, session_expired).
func (m *Metrics) RecordDenial(path, reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denialCount[path+"|"+reason]++
}

// RecordUpstream counts proxied upstream responses by status.
func (m *Metrics) RecordUpstream(path string, status int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamCount[path+"|"+strconv.Itoa(status)]++
}

// Snapshot returns copies of all counters for the health/debug surface,
// keyed by counter family.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests": copyCounters(m.requestCount),
		"errors":   copyCounters(m.errorCount),
		"logins":   copyCounters(m.loginCount),
		"denials":  copyCounters(m.denialCount),
		"upstream": copyCounters(m.upstreamCount),
	}
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
