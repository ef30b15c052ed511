// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package zonehealth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
	"github.com/KaliStudent/dnsinfo.lol/internal/zonehealth"
)

// fakeZone serves DoH JSON per record type; types absent from the map get an
// empty NOERROR answer, and types mapped to "FAIL" get an HTTP 500.
func fakeZone(t *testing.T, answers map[string][]string) dohclient.Resolver {
	t.Helper()
	typeCodes := map[string]int{"A": 1, "AAAA": 28, "CNAME": 5, "MX": 15, "NS": 2, "TXT": 16, "SOA": 6, "CAA": 257}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qtype := r.URL.Query().Get("type")
		values := answers[qtype]

		if len(values) == 1 && values[0] == "FAIL" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var records []string
		for _, data := range values {
			records = append(records, fmt.Sprintf(`{"name": "example.com", "type": %d, "TTL": 3600, "data": %q}`, typeCodes[qtype], data))
		}
		fmt.Fprintf(w, `{"Status": 0, "Answer": [%s]}`, strings.Join(records, ","))
	}))
	t.Cleanup(ts.Close)
	return dohclient.Resolver{Key: "fake", Name: "Fake", Region: "Test", Endpoint: ts.URL, Location: "Local"}
}

func TestAnalyzeExampleZone(t *testing.T) {
	resolver := fakeZone(t, map[string][]string{
		"A":   {"93.184.216.34"},
		"NS":  {"a.iana-servers.net.", "b.iana-servers.net."},
		"SOA": {"ns.icann.org. noc.dns.icann.org. 2026082901 7200 3600 1209600 3600"},
	})

	engine := zonehealth.New(dohclient.New(), zonehealth.WithResolver(resolver))
	report, err := engine.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Summary.HasMX {
		t.Error("expected has_mx=false")
	}
	if report.Summary.NSCount != 2 {
		t.Errorf("expected ns_count=2, got %d", report.Summary.NSCount)
	}
	if !report.Summary.HasSOA || !report.Summary.HasA {
		t.Error("expected has_soa and has_a")
	}

	mx := issuesFor(report, zonehealth.CategoryMX)
	assertIssueCount(t, mx, 1)
	if mx[0].Severity != zonehealth.SeverityInfo {
		t.Errorf("missing MX should be info, got %s", mx[0].Severity)
	}
	assertIssueCount(t, issuesFor(report, zonehealth.CategoryNS), 0)
	assertIssueCount(t, issuesFor(report, zonehealth.CategorySOA), 0)

	// -2 missing MX, -2 missing TXT, -10 no SPF, +5 redundant NS.
	if report.OverallScore != 91 || report.Grade != "A" {
		t.Errorf("expected 91/A, got %d/%s", report.OverallScore, report.Grade)
	}

	if report.Domain != "example.com" || report.Timestamp.IsZero() {
		t.Error("report must carry its own domain and timestamp")
	}
}

func TestAnalyzePerTypeFailureDegrades(t *testing.T) {
	resolver := fakeZone(t, map[string][]string{
		"A":   {"93.184.216.34"},
		"NS":  {"a.iana-servers.net.", "b.iana-servers.net."},
		"SOA": {"ns.icann.org. noc.dns.icann.org. 2026082901 7200 3600 1209600 3600"},
		"TXT": {"FAIL"},
	})

	engine := zonehealth.New(dohclient.New(), zonehealth.WithResolver(resolver))
	report, err := engine.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("a single failing type must not fail the report: %v", err)
	}

	general := issuesFor(report, zonehealth.CategoryGeneral)
	assertIssueCount(t, general, 1)
	if general[0].Severity != zonehealth.SeverityWarning {
		t.Errorf("fetch failure should be a warning, got %s", general[0].Severity)
	}
	if !strings.Contains(general[0].Message, "TXT") {
		t.Errorf("warning should name the failed type, got %q", general[0].Message)
	}
}

func TestAnalyzeUnreachableZone(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	resolver := dohclient.Resolver{Key: "dead", Name: "Dead", Region: "Test", Endpoint: ts.URL, Location: "Local"}
	engine := zonehealth.New(dohclient.New(), zonehealth.WithResolver(resolver))

	_, err := engine.Analyze(context.Background(), "example.com")
	if !errors.Is(err, zonehealth.ErrZoneUnreachable) {
		t.Errorf("expected ErrZoneUnreachable, got %v", err)
	}
}
