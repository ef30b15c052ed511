// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/propagation"
	"github.com/KaliStudent/dnsinfo.lol/internal/subdomains"
	"github.com/KaliStudent/dnsinfo.lol/internal/whois"
	"github.com/KaliStudent/dnsinfo.lol/internal/zonehealth"
)

// ErrAtCapacity is returned when the concurrent-scan semaphore cannot be
// acquired in time; callers translate it to a retry-later response.
var ErrAtCapacity = errors.New("scan: system at capacity")

const (
	defaultMaxConcurrent = 6
	acquireWait          = 10 * time.Second
	scanTimeout          = 60 * time.Second
)

type SectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PropagationSection bundles the raw per-resolver results with the derived
// analysis for one record type.
type PropagationSection struct {
	RecordType string               `json:"record_type"`
	Results    []propagation.Result `json:"results"`
	Analysis   propagation.Analysis `json:"analysis"`
}

// FullReport is the aggregate of every sub-check. Sections that could not
// complete are absent from the body but always named in Sections, so callers
// see a best-effort report plus an explicit list of what failed — never a
// bare error for partial degradation.
type FullReport struct {
	Domain      string                        `json:"domain"`
	Timestamp   time.Time                     `json:"timestamp"`
	ZoneHealth  *zonehealth.Report            `json:"zone_health,omitempty"`
	Propagation *PropagationSection           `json:"propagation,omitempty"`
	Subdomains  *subdomains.EnumerationResult `json:"subdomains,omitempty"`
	Whois       *whois.Info                   `json:"whois,omitempty"`
	Sections    map[string]SectionStatus      `json:"sections"`
}

type Orchestrator struct {
	health        *zonehealth.Engine
	checker       *propagation.Checker
	enumerator    *subdomains.Enumerator
	whois         *whois.Adapter
	semaphore     chan struct{}
	subdomainOpts subdomains.Options
}

type Option func(*Orchestrator)

func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) { o.semaphore = make(chan struct{}, n) }
}

// WithSubdomainOptions overrides the enumeration options a full scan uses for
// its subdomain section.
func WithSubdomainOptions(opts subdomains.Options) Option {
	return func(o *Orchestrator) { o.subdomainOpts = opts }
}

func New(health *zonehealth.Engine, checker *propagation.Checker, enumerator *subdomains.Enumerator, whoisAdapter *whois.Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		health:     health,
		checker:    checker,
		enumerator: enumerator,
		whois:      whoisAdapter,
		semaphore:  make(chan struct{}, defaultMaxConcurrent),
		subdomainOpts: subdomains.Options{
			CheckSSL:        true,
			CheckResolution: true,
			IncludeCommon:   true,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type namedResult struct {
	key    string
	value  any
	status SectionStatus
}

// FullScan runs every sub-check in parallel for one domain. The only
// caller-visible failure is the zone being unreachable outright; everything
// else is absorbed into per-section statuses.
func (o *Orchestrator) FullScan(ctx context.Context, domain string) (*FullReport, error) {
	select {
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	case <-time.After(acquireWait):
		slog.Warn("Backpressure: rejected scan", "domain", domain)
		return nil, ErrAtCapacity
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	start := time.Now()
	report := &FullReport{
		Domain:    domain,
		Timestamp: start.UTC(),
		Sections:  make(map[string]SectionStatus),
	}

	resultsCh := make(chan namedResult, 4)
	var wg sync.WaitGroup

	tasks := map[string]func() namedResult{
		"zone_health": func() namedResult { return o.runZoneHealth(ctx, domain) },
		"propagation": func() namedResult { return o.runPropagation(ctx, domain) },
		"subdomains":  func() namedResult { return o.runSubdomains(ctx, domain) },
		"whois":       func() namedResult { return o.runWhois(ctx, domain) },
	}

	for _, task := range tasks {
		wg.Add(1)
		go func(fn func() namedResult) {
			defer wg.Done()
			resultsCh <- fn()
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for nr := range resultsCh {
		report.Sections[nr.key] = nr.status
		switch nr.key {
		case "zone_health":
			if v, ok := nr.value.(*zonehealth.Report); ok {
				report.ZoneHealth = v
			}
		case "propagation":
			if v, ok := nr.value.(*PropagationSection); ok {
				report.Propagation = v
			}
		case "subdomains":
			if v, ok := nr.value.(*subdomains.EnumerationResult); ok {
				report.Subdomains = v
			}
		case "whois":
			if v, ok := nr.value.(*whois.Info); ok {
				report.Whois = v
			}
		}
	}

	// The primary record fetch is the one dependency a scan cannot survive.
	if report.ZoneHealth == nil {
		if s, ok := report.Sections["zone_health"]; ok && s.Status == "error" {
			return nil, fmt.Errorf("scan: %s", s.Message)
		}
	}

	slog.Info("Full scan completed", "domain", domain, "elapsed_s", fmt.Sprintf("%.2f", time.Since(start).Seconds()))
	return report, nil
}

func (o *Orchestrator) runZoneHealth(ctx context.Context, domain string) namedResult {
	report, err := o.health.Analyze(ctx, domain)
	if err != nil {
		return namedResult{key: "zone_health", status: SectionStatus{Status: "error", Message: err.Error()}}
	}
	return namedResult{key: "zone_health", value: report, status: SectionStatus{Status: "ok"}}
}

func (o *Orchestrator) runPropagation(ctx context.Context, domain string) namedResult {
	results := o.checker.Check(ctx, domain, "A")
	section := &PropagationSection{
		RecordType: "A",
		Results:    results,
		Analysis:   propagation.Analyze(results, "A"),
	}
	status := SectionStatus{Status: "ok"}
	if section.Analysis.Percentage == 0 {
		status = SectionStatus{Status: "degraded", Message: "No resolver returned an answer"}
	}
	return namedResult{key: "propagation", value: section, status: status}
}

func (o *Orchestrator) runSubdomains(ctx context.Context, domain string) namedResult {
	result, err := o.enumerator.Enumerate(ctx, domain, o.subdomainOpts)
	if err != nil {
		return namedResult{key: "subdomains", status: SectionStatus{Status: "degraded", Message: err.Error()}}
	}
	return namedResult{key: "subdomains", value: result, status: SectionStatus{Status: "ok"}}
}

func (o *Orchestrator) runWhois(ctx context.Context, domain string) namedResult {
	info := o.whois.Lookup(ctx, domain)
	status := SectionStatus{Status: "ok"}
	if info.Status == "unavailable" {
		status = SectionStatus{Status: "degraded", Message: info.Message}
	}
	return namedResult{key: "whois", value: &info, status: status}
}
