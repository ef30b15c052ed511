// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package zonehealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

// StandardRecordTypes is the fixed record set a health report is built from.
var StandardRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "NS", "TXT", "SOA", "CAA"}

const fetchTimeout = 5 * time.Second

// ErrZoneUnreachable is returned when the seed record fetch fails outright —
// the one case where a health report cannot be produced at all.
var ErrZoneUnreachable = errors.New("zonehealth: unable to fetch any records for domain")

type Engine struct {
	doh      *dohclient.Client
	resolver dohclient.Resolver
	timeout  time.Duration
}

type Option func(*Engine)

// WithResolver points the engine at a different single resolver, used by
// tests to target a local fake.
func WithResolver(r dohclient.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithTimeout(t time.Duration) Option {
	return func(e *Engine) { e.timeout = t }
}

func New(doh *dohclient.Client, opts ...Option) *Engine {
	e := &Engine{
		doh:      doh,
		resolver: dohclient.FastResolver,
		timeout:  fetchTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze fetches the standard record set and runs the rule battery over it.
// Per-type fetch failures degrade to warnings; only a zone with no reachable
// records at all yields an error.
func (e *Engine) Analyze(ctx context.Context, domain string) (*Report, error) {
	records, fetchIssues, nxdomain := e.fetchRecords(ctx, domain)
	if len(records) == 0 && (len(fetchIssues) == len(StandardRecordTypes) || nxdomain == len(StandardRecordTypes)-len(fetchIssues)) {
		// Nothing answered, or everything that answered said the name does
		// not exist. No report can be seeded from that.
		return nil, fmt.Errorf("%w: %s", ErrZoneUnreachable, domain)
	}

	report := Evaluate(domain, records)
	report.Issues = append(fetchIssues, report.Issues...)
	report.OverallScore, report.Grade = Score(report.Issues, report.Summary)
	return report, nil
}

// fetchRecords queries all standard types concurrently against the single
// fast resolver (at most 8 in flight). The resolver may throttle; a 429 or
// any other per-type failure becomes a General warning, never a fatal error.
func (e *Engine) fetchRecords(ctx context.Context, domain string) (map[string][]dohclient.Record, []Issue, int) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	records := make(map[string][]dohclient.Record)
	issuesByType := make(map[string]Issue)
	nxdomain := 0

	for _, recordType := range StandardRecordTypes {
		wg.Add(1)
		go func(rt string) {
			defer wg.Done()
			resp, err := e.doh.Query(ctx, e.resolver.Endpoint, domain, rt, e.timeout)
			if err != nil {
				slog.Debug("Zone health fetch failed", "domain", domain, "type", rt, "error", err)
				mu.Lock()
				issuesByType[rt] = Issue{
					Severity: SeverityWarning,
					Category: CategoryGeneral,
					Message:  fmt.Sprintf("Could not fetch %s records: %v", rt, err),
				}
				mu.Unlock()
				return
			}

			var matched []dohclient.Record
			for _, rec := range resp.Answer {
				if rec.TypeName == rt {
					matched = append(matched, rec)
				}
			}
			mu.Lock()
			if resp.Status == 3 {
				nxdomain++
			}
			if len(matched) > 0 {
				records[rt] = matched
			}
			mu.Unlock()
		}(recordType)
	}
	wg.Wait()

	// Issue order follows the standard type order, not goroutine completion.
	var issues []Issue
	for _, rt := range StandardRecordTypes {
		if iss, ok := issuesByType[rt]; ok {
			issues = append(issues, iss)
		}
	}
	return records, issues, nxdomain
}
