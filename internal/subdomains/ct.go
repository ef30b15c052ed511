// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package subdomains

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

const ctProvider = "ct:crt.sh"

type ctEntry struct {
	NameValue string `json:"name_value"`
}

// fetchCTNames scrapes the certificate-transparency aggregator for every
// name covered by a certificate under the domain. Any failure here degrades
// to an empty set — discovery falls back to the wordlist alone.
func (e *Enumerator) fetchCTNames(ctx context.Context, domain string) []string {
	if cached, ok := e.ctCache.Get(domain); ok {
		return cached
	}

	if e.telemetry != nil && e.telemetry.InCooldown(ctProvider) {
		slog.Info("CT provider in cooldown, skipping", "domain", domain)
		return nil
	}

	ctURL := fmt.Sprintf("%s/?q=%%25.%s&output=json", strings.TrimRight(e.ctEndpoint, "/"), domain)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", ctURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.recordCTFailure(err.Error())
		slog.Warn("CT log query failed", "domain", domain, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.recordCTFailure(fmt.Sprintf("HTTP %d", resp.StatusCode))
		slog.Warn("CT log returned non-OK status", "domain", domain, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		e.recordCTFailure(err.Error())
		return nil
	}

	var entries []ctEntry
	if json.Unmarshal(body, &entries) != nil {
		e.recordCTFailure("invalid JSON")
		slog.Warn("CT response did not parse", "domain", domain)
		return nil
	}

	if e.telemetry != nil {
		e.telemetry.RecordSuccess(ctProvider, time.Since(start))
	}

	names := extractCTNames(entries, domain)
	e.ctCache.Set(domain, names)
	return names
}

func (e *Enumerator) recordCTFailure(msg string) {
	if e.telemetry != nil {
		e.telemetry.RecordFailure(ctProvider, msg)
	}
}

// extractCTNames deduplicates the newline-delimited subject names, dropping
// wildcard entries and anything outside the zone. The apex itself is kept.
func extractCTNames(entries []ctEntry, domain string) []string {
	seen := make(map[string]bool)
	var names []string

	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.TrimSpace(strings.ToLower(name))
			if name == "" || strings.HasPrefix(name, "*.") {
				continue
			}
			if name != domain && !strings.HasSuffix(name, "."+domain) {
				continue
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)
	return names
}
