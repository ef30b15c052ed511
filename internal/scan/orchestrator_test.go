// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package scan_test

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
	"github.com/KaliStudent/dnsinfo.lol/internal/scan"
	"github.com/KaliStudent/dnsinfo.lol/internal/subdomains"
	"github.com/KaliStudent/dnsinfo.lol/internal/whois"
	"github.com/KaliStudent/dnsinfo.lol/internal/zonehealth"
)

// fakeDoH answers every query type for example.com with a small healthy zone.
func fakeDoH(t *testing.T) dohclient.Resolver {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("type") {
		case "A":
			fmt.Fprint(w, `{"Status": 0, "Answer": [{"name": "example.com", "type": 1, "TTL": 300, "data": "93.184.216.34"}]}`)
		case "NS":
			fmt.Fprint(w, `{"Status": 0, "Answer": [
				{"name": "example.com", "type": 2, "TTL": 86400, "data": "a.iana-servers.net."},
				{"name": "example.com", "type": 2, "TTL": 86400, "data": "b.iana-servers.net."}]}`)
		case "SOA":
			fmt.Fprint(w, `{"Status": 0, "Answer": [{"name": "example.com", "type": 6, "TTL": 3600, "data": "ns.icann.org. noc.dns.icann.org. 2026082901 7200 3600 1209600 3600"}]}`)
		default:
			fmt.Fprint(w, `{"Status": 0}`)
		}
	}))
	t.Cleanup(ts.Close)
	return dohclient.Resolver{Key: "fake", Name: "Fake", Region: "Test", Endpoint: ts.URL, Location: "Local"}
}

func emptyCT(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func newOrchestrator(t *testing.T, zoneResolver dohclient.Resolver) *scan.Orchestrator {
	t.Helper()
	doh := dohclient.New()

	checker := propagation.New(doh,
		propagation.WithRegistry([]dohclient.Resolver{fakeDoH(t), fakeDoH(t)}),
		propagation.WithTimeout(2*time.Second),
	)
	engine := zonehealth.New(doh, zonehealth.WithResolver(zoneResolver))
	enumerator := subdomains.New(doh,
		subdomains.WithCTEndpoint(emptyCT(t)),
		subdomains.WithResolver(fakeDoH(t)),
		subdomains.WithWordlist([]string{"www"}),
	)
	// Nothing listens on port 1; WHOIS degrades to its placeholder.
	adapter := whois.New(whois.WithServer("127.0.0.1:1"), whois.WithTimeout(300*time.Millisecond))

	return scan.New(engine, checker, enumerator, adapter,
		scan.WithSubdomainOptions(subdomains.Options{
			CheckResolution: true,
			IncludeCommon:   true,
		}),
	)
}

func TestFullScanAggregatesSections(t *testing.T) {
	orchestrator := newOrchestrator(t, fakeDoH(t))

	report, err := orchestrator.FullScan(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, section := range []string{"zone_health", "propagation", "subdomains", "whois"} {
		if _, ok := report.Sections[section]; !ok {
			t.Errorf("section %q missing from status map", section)
		}
	}

	if report.ZoneHealth == nil {
		t.Fatal("zone health section missing")
	}
	if report.ZoneHealth.Summary.NSCount != 2 {
		t.Errorf("expected ns_count=2, got %d", report.ZoneHealth.Summary.NSCount)
	}

	if report.Propagation == nil {
		t.Fatal("propagation section missing")
	}
	if !report.Propagation.Analysis.Propagated {
		t.Errorf("two consistent fake resolvers should report propagated, got %+v", report.Propagation.Analysis)
	}

	if report.Subdomains == nil {
		t.Fatal("subdomains section missing")
	}

	if report.Whois == nil {
		t.Fatal("whois section missing")
	}
	if report.Sections["whois"].Status != "degraded" {
		t.Errorf("unreachable WHOIS should degrade, got %+v", report.Sections["whois"])
	}
	if report.Whois.Status != "unavailable" {
		t.Errorf("expected the placeholder WHOIS result, got %+v", report.Whois)
	}

	if report.Domain != "example.com" || report.Timestamp.IsZero() {
		t.Error("report must carry its own domain and timestamp")
	}
}

func TestFullScanFailsWhenZoneUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()

	orchestrator := newOrchestrator(t, dohclient.Resolver{
		Key: "dead", Name: "Dead", Region: "Test", Endpoint: dead.URL, Location: "Local",
	})

	_, err := orchestrator.FullScan(context.Background(), "example.com")
	if err == nil {
		t.Fatal("a zone with no reachable records must fail the scan")
	}
	if !strings.Contains(err.Error(), "example.com") {
		t.Errorf("error should name the domain, got %v", err)
	}
}
