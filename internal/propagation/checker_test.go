// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package propagation_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
	"github.com/KaliStudent/dnsinfo.lol/internal/propagation"
)

// fakeResolver spins an httptest server answering every A query with the
// given IPs and returns a registry descriptor pointing at it.
func fakeResolver(t *testing.T, name string, ips ...string) dohclient.Resolver {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var answers []string
		for _, ip := range ips {
			answers = append(answers, fmt.Sprintf(`{"name": "example.com", "type": 1, "TTL": 300, "data": %q}`, ip))
		}
		fmt.Fprintf(w, `{"Status": 0, "Answer": [%s]}`, strings.Join(answers, ","))
	}))
	t.Cleanup(ts.Close)
	return dohclient.Resolver{Key: strings.ToLower(name), Name: name, Region: "Test", Endpoint: ts.URL, Location: "Local"}
}

func brokenResolver(t *testing.T, name string) dohclient.Resolver {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	return dohclient.Resolver{Key: strings.ToLower(name), Name: name, Region: "Test", Endpoint: ts.URL, Location: "Local"}
}

func successResults(n int) []propagation.Result {
	results := make([]propagation.Result, n)
	for i := range results {
		results[i] = propagation.Result{
			Resolver: fmt.Sprintf("resolver-%d", i),
			Status:   propagation.StatusSuccess,
			Response: &dohclient.Response{},
		}
	}
	return results
}

func TestCheckPreservesRegistryOrder(t *testing.T) {
	registry := []dohclient.Resolver{
		fakeResolver(t, "First", "1.1.1.1"),
		brokenResolver(t, "Second"),
		fakeResolver(t, "Third", "1.1.1.1"),
	}

	checker := propagation.New(dohclient.New(), propagation.WithRegistry(registry))
	results := checker.Check(context.Background(), "example.com", "A")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if results[i].Resolver != want {
			t.Errorf("result %d from %q, want %q", i, results[i].Resolver, want)
		}
	}
	if results[1].Status != propagation.StatusError {
		t.Errorf("broken resolver should report error, got %s", results[1].Status)
	}
	if results[0].Status != propagation.StatusSuccess || results[2].Status != propagation.StatusSuccess {
		t.Error("one failing resolver must not abort its siblings")
	}
}

func TestCheckTimeoutStatus(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	registry := []dohclient.Resolver{
		{Key: "slow", Name: "Slow", Region: "Test", Endpoint: ts.URL, Location: "Local"},
	}

	timeout := 200 * time.Millisecond
	checker := propagation.New(dohclient.New(),
		propagation.WithRegistry(registry),
		propagation.WithTimeout(timeout),
	)

	start := time.Now()
	results := checker.Check(context.Background(), "example.com", "A")
	elapsed := time.Since(start)

	if results[0].Status != propagation.StatusTimeout {
		t.Fatalf("expected timeout status, got %s (%s)", results[0].Status, results[0].Error)
	}
	if results[0].LatencyMs < timeout.Milliseconds()-50 {
		t.Errorf("latency %dms should be close to the %dms timeout", results[0].LatencyMs, timeout.Milliseconds())
	}
	if elapsed > timeout+time.Second {
		t.Errorf("check hung past the timeout: %v", elapsed)
	}
}

func TestAnalyzeConsistentAnswers(t *testing.T) {
	registry := []dohclient.Resolver{
		fakeResolver(t, "Alpha", "93.184.216.34"),
		fakeResolver(t, "Beta", "93.184.216.34"),
		fakeResolver(t, "Gamma", "93.184.216.34"),
	}

	checker := propagation.New(dohclient.New(), propagation.WithRegistry(registry))
	results := checker.Check(context.Background(), "example.com", "A")
	analysis := propagation.Analyze(results, "A")

	if !analysis.RecordsConsistent {
		t.Error("identical answers should be consistent")
	}
	if len(analysis.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %v", analysis.Discrepancies)
	}
	if !analysis.Propagated || analysis.Percentage != 100 {
		t.Errorf("expected propagated at 100%%, got propagated=%v pct=%d", analysis.Propagated, analysis.Percentage)
	}
	if len(analysis.IPAddresses) != 1 || analysis.IPAddresses[0] != "93.184.216.34" {
		t.Errorf("expected union of one IP, got %v", analysis.IPAddresses)
	}
}

func TestAnalyzeDeviatingResolverNamed(t *testing.T) {
	registry := []dohclient.Resolver{
		fakeResolver(t, "Alpha", "93.184.216.34"),
		fakeResolver(t, "Beta", "93.184.216.34"),
		fakeResolver(t, "Stale", "198.51.100.9"),
	}

	checker := propagation.New(dohclient.New(), propagation.WithRegistry(registry))
	results := checker.Check(context.Background(), "example.com", "A")
	analysis := propagation.Analyze(results, "A")

	if analysis.RecordsConsistent {
		t.Fatal("differing answer sets should not be consistent")
	}
	if analysis.Propagated {
		t.Error("inconsistent answers must not count as propagated, even at 100% coverage")
	}
	if len(analysis.Discrepancies) != 1 || !strings.Contains(analysis.Discrepancies[0], "Stale") {
		t.Errorf("deviating resolver should be named, got %v", analysis.Discrepancies)
	}
	if len(analysis.IPAddresses) != 2 {
		t.Errorf("union should carry both observed IPs, got %v", analysis.IPAddresses)
	}
	if !strings.Contains(analysis.Summary, "disagree") {
		t.Errorf("expected the inconsistency summary branch, got %q", analysis.Summary)
	}
}

func TestAnalyzePercentageRounding(t *testing.T) {
	results := successResults(5)
	for i := 0; i < 2; i++ {
		results = append(results, propagation.Result{
			Resolver: fmt.Sprintf("down-%d", i),
			Status:   propagation.StatusError,
			Error:    "connection refused",
		})
	}

	analysis := propagation.Analyze(results, "A")
	if analysis.Percentage != 71 {
		t.Errorf("5/7 successes should round to 71%%, got %d", analysis.Percentage)
	}
	if !analysis.Propagated {
		t.Error("71% with consistent records should count as propagated")
	}
}

func TestAnalyzeLowCoverage(t *testing.T) {
	results := successResults(2)
	for i := 0; i < 5; i++ {
		results = append(results, propagation.Result{Status: propagation.StatusTimeout})
	}

	analysis := propagation.Analyze(results, "A")
	if analysis.Percentage != 29 {
		t.Errorf("2/7 successes should round to 29%%, got %d", analysis.Percentage)
	}
	if analysis.Propagated {
		t.Error("29% coverage must not count as propagated")
	}
	if !strings.Contains(analysis.Summary, "still propagating") {
		t.Errorf("expected the low-coverage summary branch, got %q", analysis.Summary)
	}
}

func TestAnalyzeSingleSuccessCannotDetectInconsistency(t *testing.T) {
	results := []propagation.Result{
		{
			Resolver: "only",
			Status:   propagation.StatusSuccess,
			Response: &dohclient.Response{Answer: []dohclient.Record{
				{Name: "example.com", Type: 1, TypeName: "A", TTL: 300, Data: "203.0.113.7"},
			}},
		},
		{Resolver: "down", Status: propagation.StatusError},
	}

	analysis := propagation.Analyze(results, "A")
	if !analysis.RecordsConsistent {
		t.Error("a single successful resolver cannot establish an inconsistency")
	}
	if len(analysis.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %v", analysis.Discrepancies)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	analysis := propagation.Analyze(nil, "A")
	if analysis.Percentage != 0 || analysis.Propagated {
		t.Errorf("empty input should yield 0%% unpropagated, got %+v", analysis)
	}
}
