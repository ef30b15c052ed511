// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
	"github.com/KaliStudent/dnsinfo.lol/internal/telemetry"
)

// Fixed policy constants. The threshold and the two-resolver minimum for
// inconsistency detection are not per-call knobs.
const (
	PropagatedThreshold = 70
	ResolverTimeout     = 8 * time.Second
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Result is one resolver's outcome for one check. Created fresh per call,
// never persisted.
type Result struct {
	Resolver  string              `json:"resolver"`
	Region    string              `json:"region"`
	Location  string              `json:"location"`
	Status    Status              `json:"status"`
	Response  *dohclient.Response `json:"response,omitempty"`
	LatencyMs int64               `json:"latency_ms"`
	Error     string              `json:"error,omitempty"`
	CheckedAt time.Time           `json:"checked_at"`
}

type Analysis struct {
	Propagated        bool     `json:"propagated"`
	Percentage        int      `json:"percentage"`
	RecordsConsistent bool     `json:"records_consistent"`
	IPAddresses       []string `json:"ip_addresses"`
	Discrepancies     []string `json:"discrepancies"`
	Summary           string   `json:"summary"`
}

type Checker struct {
	registry  []dohclient.Resolver
	doh       *dohclient.Client
	telemetry *telemetry.Registry
	timeout   time.Duration
}

type Option func(*Checker)

// WithRegistry swaps the resolver set, mainly so tests can run against a
// two-entry registry of local fakes.
func WithRegistry(r []dohclient.Resolver) Option {
	return func(c *Checker) { c.registry = r }
}

func WithTimeout(t time.Duration) Option {
	return func(c *Checker) { c.timeout = t }
}

func WithTelemetry(reg *telemetry.Registry) Option {
	return func(c *Checker) { c.telemetry = reg }
}

func New(doh *dohclient.Client, opts ...Option) *Checker {
	c := &Checker{
		registry: dohclient.DefaultResolvers,
		doh:      doh,
		timeout:  ResolverTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check queries every registered resolver concurrently for one record type.
// The returned slice preserves registry order regardless of completion
// order, and a failing resolver never aborts its siblings.
func (c *Checker) Check(ctx context.Context, domain, recordType string) []Result {
	results := make([]Result, len(c.registry))
	var wg sync.WaitGroup

	for i, resolver := range c.registry {
		wg.Add(1)
		go func(idx int, r dohclient.Resolver) {
			defer wg.Done()
			results[idx] = c.queryOne(ctx, r, domain, recordType)
		}(i, resolver)
	}
	wg.Wait()

	return results
}

func (c *Checker) queryOne(ctx context.Context, r dohclient.Resolver, domain, recordType string) Result {
	start := time.Now()
	resp, err := c.doh.Query(ctx, r.Endpoint, domain, recordType, c.timeout)
	latency := time.Since(start)

	result := Result{
		Resolver:  r.Name,
		Region:    r.Region,
		Location:  r.Location,
		LatencyMs: latency.Milliseconds(),
		CheckedAt: start,
	}

	if err != nil {
		if c.telemetry != nil {
			c.telemetry.RecordFailure("doh:"+r.Key, err.Error())
		}
		result.Error = err.Error()
		if errors.Is(err, dohclient.ErrTimeout) {
			result.Status = StatusTimeout
		} else {
			result.Status = StatusError
		}
		slog.Debug("Propagation query failed", "resolver", r.Name, "domain", domain, "type", recordType, "error", err)
		return result
	}

	if c.telemetry != nil {
		c.telemetry.RecordSuccess("doh:"+r.Key, latency)
	}
	result.Status = StatusSuccess
	result.Response = resp
	return result
}

// Analyze derives consistency and coverage metrics from one check run.
// IP-set comparison only applies to address record types; for everything
// else consistency is judged by coverage alone.
func Analyze(results []Result, recordType string) Analysis {
	total := len(results)
	analysis := Analysis{RecordsConsistent: true}
	if total == 0 {
		analysis.Summary = "No resolvers were queried."
		return analysis
	}

	successCount := 0
	for _, r := range results {
		if r.Status == StatusSuccess {
			successCount++
		}
	}
	analysis.Percentage = int(math.Round(100 * float64(successCount) / float64(total)))

	upperType := strings.ToUpper(strings.TrimSpace(recordType))
	if upperType == "A" || upperType == "AAAA" {
		analysis.RecordsConsistent, analysis.IPAddresses, analysis.Discrepancies = compareIPSets(results, upperType)
	}

	analysis.Propagated = analysis.Percentage >= PropagatedThreshold && analysis.RecordsConsistent

	switch {
	case analysis.Propagated:
		analysis.Summary = fmt.Sprintf("DNS is fully propagated: %d%% of resolvers returned consistent answers.", analysis.Percentage)
	case analysis.Percentage < PropagatedThreshold:
		analysis.Summary = fmt.Sprintf("DNS is still propagating: only %d%% of resolvers returned an answer.", analysis.Percentage)
	default:
		analysis.Summary = fmt.Sprintf("Resolvers disagree: %d%% answered but %d returned differing record sets.", analysis.Percentage, len(analysis.Discrepancies))
	}
	return analysis
}

// compareIPSets sorts each successful resolver's answer IPs and compares the
// sets pairwise against the first success. Detecting an inconsistency needs
// at least two successful resolvers.
type resolverIPs struct {
	name string
	ips  []string
}

func compareIPSets(results []Result, recordType string) (consistent bool, union []string, discrepancies []string) {
	consistent = true

	var observed []resolverIPs
	seen := make(map[string]bool)

	for _, r := range results {
		if r.Status != StatusSuccess || r.Response == nil {
			continue
		}
		var ips []string
		for _, rec := range r.Response.Answer {
			if rec.TypeName != recordType {
				continue
			}
			ips = append(ips, rec.Data)
			if !seen[rec.Data] {
				seen[rec.Data] = true
				union = append(union, rec.Data)
			}
		}
		sort.Strings(ips)
		observed = append(observed, resolverIPs{name: r.Resolver, ips: ips})
	}
	sort.Strings(union)

	if len(observed) < 2 {
		return consistent, union, nil
	}

	reference := observed[0].ips
	for _, o := range observed[1:] {
		if !stringSlicesEqual(reference, o.ips) {
			consistent = false
			break
		}
	}
	if consistent {
		return true, union, nil
	}

	// Name every resolver that deviates from the majority answer set.
	majority := majorityIPSet(observed)
	for _, o := range observed {
		if !stringSlicesEqual(o.ips, majority) {
			discrepancies = append(discrepancies, fmt.Sprintf("%s returned [%s]", o.name, strings.Join(o.ips, ", ")))
		}
	}
	return false, union, discrepancies
}

func majorityIPSet(observed []resolverIPs) []string {
	counts := make(map[string]int)
	byKey := make(map[string][]string)
	for _, o := range observed {
		key := strings.Join(o.ips, "|")
		counts[key]++
		byKey[key] = o.ips
	}

	var bestKey string
	bestCount := -1
	for key, n := range counts {
		if n > bestCount {
			bestKey, bestCount = key, n
		}
	}
	return byKey[bestKey]
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
