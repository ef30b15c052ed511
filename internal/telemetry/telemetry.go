// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// Registry tracks the health of every upstream the engine talks to: one
// entry per DoH resolver key plus the CT log and WHOIS providers. Consecutive
// failures push a provider into an exponential cooldown so a dead upstream is
// skipped instead of hammered.

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Degraded  HealthState = "degraded"
	Unhealthy HealthState = "unhealthy"

	degradedThreshold  = 3
	unhealthyThreshold = 5
	cooldownBase       = 5 * time.Second
	cooldownMax        = 5 * time.Minute
	latencyWindowSize  = 100
)

type ProviderStats struct {
	Name            string      `json:"name"`
	State           HealthState `json:"state"`
	TotalRequests   int64       `json:"total_requests"`
	SuccessCount    int64       `json:"success_count"`
	FailureCount    int64       `json:"failure_count"`
	ConsecFailures  int         `json:"consecutive_failures"`
	LastError       string      `json:"last_error,omitempty"`
	LastErrorTime   *time.Time  `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time  `json:"last_success_time,omitempty"`
	AvgLatencyMs    float64     `json:"avg_latency_ms"`
	P95LatencyMs    float64     `json:"p95_latency_ms"`
	InCooldown      bool        `json:"in_cooldown"`
	CooldownUntil   *time.Time  `json:"cooldown_until,omitempty"`
}

// latencyWindow is a fixed-size ring of recent request latencies in
// milliseconds.
type latencyWindow struct {
	samples [latencyWindowSize]float64
	next    int
	filled  bool
}

func (w *latencyWindow) add(ms float64) {
	w.samples[w.next] = ms
	w.next++
	if w.next == latencyWindowSize {
		w.next = 0
		w.filled = true
	}
}

// snapshot returns the window's samples sorted ascending, or nil when empty.
func (w *latencyWindow) snapshot() []float64 {
	n := w.next
	if w.filled {
		n = latencyWindowSize
	}
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	copy(out, w.samples[:n])
	sort.Float64s(out)
	return out
}

type upstream struct {
	mu            sync.Mutex
	name          string
	successes     int64
	failures      int64
	consecFails   int
	lastError     string
	lastErrorAt   time.Time
	lastSuccessAt time.Time
	window        latencyWindow
	cooldownUntil time.Time
}

type Registry struct {
	mu        sync.RWMutex
	upstreams map[string]*upstream
}

func NewRegistry() *Registry {
	return &Registry{upstreams: make(map[string]*upstream)}
}

func (r *Registry) lookup(name string) *upstream {
	r.mu.RLock()
	u, ok := r.upstreams[name]
	r.mu.RUnlock()
	if ok {
		return u
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok = r.upstreams[name]; ok {
		return u
	}
	u = &upstream{name: name}
	r.upstreams[name] = u
	return u
}

func (r *Registry) RecordSuccess(name string, latency time.Duration) {
	u := r.lookup(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.successes++
	u.consecFails = 0
	u.lastSuccessAt = time.Now()
	u.cooldownUntil = time.Time{}
	u.window.add(float64(latency.Microseconds()) / 1000.0)
}

func (r *Registry) RecordFailure(name, errMsg string) {
	u := r.lookup(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.failures++
	u.consecFails++
	u.lastError = errMsg
	u.lastErrorAt = time.Now()

	// Backoff doubles for each failure past the degraded threshold.
	if u.consecFails >= degradedThreshold {
		backoff := cooldownBase << (u.consecFails - degradedThreshold)
		if backoff > cooldownMax || backoff <= 0 {
			backoff = cooldownMax
		}
		u.cooldownUntil = u.lastErrorAt.Add(backoff)
	}
}

func (r *Registry) InCooldown(name string) bool {
	r.mu.RLock()
	u, ok := r.upstreams[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.cooldownUntil.IsZero() && time.Now().Before(u.cooldownUntil)
}

func (r *Registry) GetStats(name string) ProviderStats {
	u := r.lookup(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	s := ProviderStats{
		Name:           u.name,
		TotalRequests:  u.successes + u.failures,
		SuccessCount:   u.successes,
		FailureCount:   u.failures,
		ConsecFailures: u.consecFails,
		LastError:      u.lastError,
		State:          stateFor(u.consecFails),
	}

	if !u.lastErrorAt.IsZero() {
		t := u.lastErrorAt
		s.LastErrorTime = &t
	}
	if !u.lastSuccessAt.IsZero() {
		t := u.lastSuccessAt
		s.LastSuccessTime = &t
	}
	if !u.cooldownUntil.IsZero() && time.Now().Before(u.cooldownUntil) {
		s.InCooldown = true
		t := u.cooldownUntil
		s.CooldownUntil = &t
	}

	if window := u.window.snapshot(); len(window) > 0 {
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		s.AvgLatencyMs = sum / float64(len(window))
		s.P95LatencyMs = window[int(float64(len(window)-1)*0.95)]
	}

	return s
}

func (r *Registry) AllStats() []ProviderStats {
	r.mu.RLock()
	names := make([]string, 0, len(r.upstreams))
	for name := range r.upstreams {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	stats := make([]ProviderStats, 0, len(names))
	for _, name := range names {
		stats = append(stats, r.GetStats(name))
	}
	return stats
}

func stateFor(consecFails int) HealthState {
	switch {
	case consecFails >= unhealthyThreshold:
		return Unhealthy
	case consecFails >= degradedThreshold:
		return Degraded
	default:
		return Healthy
	}
}
