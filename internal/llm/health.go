package llm

import (
	"sort"
	"sync"
	"time"
)

// HealthState represents the health status of a provider.
type HealthState string

const (
	HealthStateHealthy  HealthState = "healthy"
	HealthStateDegraded HealthState = "degraded"
	HealthStateDown     HealthState = "down"
)

const (
	outcomeWindowSize = 20
	downThreshold     = 3 // consecutive failures
	degradedErrorRate = 0.05
	latencyWindowSize = 20
)

// ProviderHealth is a point-in-time snapshot of a provider's health.
type ProviderHealth struct {
	Provider     string        `json:"provider"`
	State        HealthState   `json:"state"`
	LastError    string        `json:"lastError,omitempty"`
	FailureCount int           `json:"failureCount"`
	LastChecked  time.Time     `json:"lastChecked"`
	AvgLatency   time.Duration `json:"avgLatencyNs"`
}

type healthEntry struct {
	provider string

	// rolling window of outcomes, true = error
	outcomes     [outcomeWindowSize]bool
	outcomeCount int
	outcomeIdx   int

	latencies [latencyWindowSize]time.Duration
	latCount  int
	latIdx    int

	consecutiveFailures int
	failureCount        int
	lastError           string
	lastChecked         time.Time
}

// HealthRegistry tracks per-provider probe outcomes and derives a coarse
// state from consecutive failures and the rolling error rate.
type HealthRegistry struct {
	mu      sync.RWMutex
	entries map[string]*healthEntry
}

func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{entries: make(map[string]*healthEntry)}
}

func (r *HealthRegistry) entry(provider string) *healthEntry {
	e, ok := r.entries[provider]
	if !ok {
		e = &healthEntry{provider: provider}
		r.entries[provider] = e
	}
	return e
}

// RecordSuccess notes a successful probe.
func (r *HealthRegistry) RecordSuccess(provider string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(provider)
	e.record(false, latency)
	e.consecutiveFailures = 0
	e.lastError = ""
}

// RecordFailure notes a failed probe.
func (r *HealthRegistry) RecordFailure(provider string, err error, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(provider)
	e.record(true, latency)
	e.consecutiveFailures++
	e.failureCount++
	if err != nil {
		e.lastError = err.Error()
	}
}

func (e *healthEntry) record(isError bool, latency time.Duration) {
	e.outcomes[e.outcomeIdx] = isError
	e.outcomeIdx = (e.outcomeIdx + 1) % outcomeWindowSize
	if e.outcomeCount < outcomeWindowSize {
		e.outcomeCount++
	}
	e.latencies[e.latIdx] = latency
	e.latIdx = (e.latIdx + 1) % latencyWindowSize
	if e.latCount < latencyWindowSize {
		e.latCount++
	}
	e.lastChecked = time.Now()
}

func (e *healthEntry) state() HealthState {
	if e.consecutiveFailures >= downThreshold {
		return HealthStateDown
	}
	if e.outcomeCount == 0 {
		return HealthStateHealthy
	}
	errors := 0
	for i := 0; i < e.outcomeCount; i++ {
		if e.outcomes[i] {
			errors++
		}
	}
	if float64(errors)/float64(e.outcomeCount) > degradedErrorRate {
		return HealthStateDegraded
	}
	return HealthStateHealthy
}

func (e *healthEntry) avgLatency() time.Duration {
	if e.latCount == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < e.latCount; i++ {
		total += e.latencies[i]
	}
	return total / time.Duration(e.latCount)
}

// Snapshot returns the health of every tracked provider, sorted by name.
func (r *HealthRegistry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderHealth, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, ProviderHealth{
			Provider:     e.provider,
			State:        e.state(),
			LastError:    e.lastError,
			FailureCount: e.failureCount,
			LastChecked:  e.lastChecked,
			AvgLatency:   e.avgLatency(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// Provider returns the health snapshot for one provider.
func (r *HealthRegistry) Provider(provider string) (ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[provider]
	if !ok {
		return ProviderHealth{}, false
	}
	return ProviderHealth{
		Provider:     e.provider,
		State:        e.state(),
		LastError:    e.lastError,
		FailureCount: e.failureCount,
		LastChecked:  e.lastChecked,
		AvgLatency:   e.avgLatency(),
	}, true
}
