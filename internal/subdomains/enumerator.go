// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package subdomains

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
	"github.com/KaliStudent/dnsinfo.lol/internal/telemetry"
)

const (
	SourceCT       = "Certificate Transparency"
	SourceWordlist = "Common Subdomain List"

	DefaultMaxResults = 100

	resolveTimeout = 3 * time.Second
	sslTimeout     = 5 * time.Second
	probeWorkers   = 15
)

type Options struct {
	CheckSSL        bool `json:"check_ssl"`
	CheckResolution bool `json:"check_resolution"`
	IncludeCommon   bool `json:"include_common"`
	MaxResults      int  `json:"max_results"`
}

type Result struct {
	Label       string   `json:"label"`
	FullDomain  string   `json:"full_domain"`
	Source      string   `json:"source"`
	Resolves    bool     `json:"resolves"`
	IPAddresses []string `json:"ip_addresses,omitempty"`
	HasSSL      bool     `json:"has_ssl"`
	SSLExpired  *bool    `json:"ssl_expired,omitempty"`
}

type EnumerationResult struct {
	Domain       string         `json:"domain"`
	Timestamp    time.Time      `json:"timestamp"`
	TotalFound   int            `json:"total_found"`
	Subdomains   []Result       `json:"subdomains"`
	SourceCounts map[string]int `json:"source_counts"`
}

type Enumerator struct {
	doh        *dohclient.Client
	resolver   dohclient.Resolver
	httpClient *http.Client
	ctEndpoint string
	userAgent  string
	wordlist   []string
	telemetry  *telemetry.Registry
	ctCache    *telemetry.TTLCache[[]string]
}

type Option func(*Enumerator)

func WithCTEndpoint(endpoint string) Option {
	return func(e *Enumerator) { e.ctEndpoint = endpoint }
}

func WithHTTPClient(h *http.Client) Option {
	return func(e *Enumerator) { e.httpClient = h }
}

func WithResolver(r dohclient.Resolver) Option {
	return func(e *Enumerator) { e.resolver = r }
}

func WithWordlist(words []string) Option {
	return func(e *Enumerator) { e.wordlist = words }
}

func WithTelemetry(reg *telemetry.Registry) Option {
	return func(e *Enumerator) { e.telemetry = reg }
}

func New(doh *dohclient.Client, opts ...Option) *Enumerator {
	e := &Enumerator{
		doh:      doh,
		resolver: dohclient.FastResolver,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		ctEndpoint: "https://crt.sh",
		userAgent:  dohclient.UserAgent,
		wordlist:   CommonSubdomains,
		ctCache:    telemetry.NewTTLCache[[]string]("ct_names", 200, time.Hour),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enumerate merges CT-discovered names with wordlist guesses and probes each
// candidate. CT entries are reported whether or not they resolve; wordlist
// guesses are only kept when they do. On collision CT wins.
func (e *Enumerator) Enumerate(ctx context.Context, domain string, opts Options) (*EnumerationResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	seen := make(map[string]bool)
	var ctCandidates []string
	for _, name := range e.fetchCTNames(ctx, domain) {
		if len(ctCandidates) >= maxResults {
			break
		}
		if !seen[name] {
			seen[name] = true
			ctCandidates = append(ctCandidates, name)
		}
	}

	ctResults := make([]Result, len(ctCandidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeWorkers)
	for i, name := range ctCandidates {
		g.Go(func() error {
			ctResults[i] = e.probe(gctx, domain, name, SourceCT, opts)
			return nil
		})
	}
	_ = g.Wait()

	results := ctResults

	if opts.IncludeCommon && len(results) < maxResults {
		var mu sync.Mutex
		wg, wctx := errgroup.WithContext(ctx)
		wg.SetLimit(probeWorkers)

		budget := maxResults - len(results)
		launched := 0
		for _, label := range e.wordlist {
			fqdn := label + "." + domain
			if seen[fqdn] {
				continue
			}
			seen[fqdn] = true
			if launched >= budget {
				break
			}
			launched++

			wg.Go(func() error {
				r := e.probe(wctx, domain, fqdn, SourceWordlist, opts)
				// Non-resolving guesses are noise, not findings.
				if r.Resolves {
					mu.Lock()
					results = append(results, r)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = wg.Wait()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Label < results[j].Label
	})

	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Source]++
	}

	slog.Info("Subdomain enumeration complete", "domain", domain, "found", len(results), "ct", counts[SourceCT], "wordlist", counts[SourceWordlist])

	return &EnumerationResult{
		Domain:       domain,
		Timestamp:    time.Now().UTC(),
		TotalFound:   len(results),
		Subdomains:   results,
		SourceCounts: counts,
	}, nil
}

func (e *Enumerator) probe(ctx context.Context, domain, fqdn, source string, opts Options) Result {
	result := Result{
		Label:      labelFor(fqdn, domain),
		FullDomain: fqdn,
		Source:     source,
	}

	if !opts.CheckResolution {
		return result
	}

	resp, err := e.doh.Query(ctx, e.resolver.Endpoint, fqdn, "A", resolveTimeout)
	if err != nil || resp.Status != 0 {
		return result
	}
	for _, rec := range resp.Answer {
		if rec.TypeName == "A" {
			result.IPAddresses = append(result.IPAddresses, rec.Data)
		}
	}
	result.Resolves = len(result.IPAddresses) > 0

	if result.Resolves && opts.CheckSSL {
		result.HasSSL, result.SSLExpired = e.probeSSL(ctx, fqdn)
	}
	return result
}

// probeSSL infers SSL presence from bare handshake success. This is a named
// heuristic: a server whose certificate strict validation would reject still
// counts as having SSL, and a network hiccup reads as not having it. Only
// leaf expiry is inspected, nothing else about the chain.
func (e *Enumerator) probeSSL(ctx context.Context, fqdn string) (hasSSL bool, expired *bool) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: sslTimeout},
		Config: &tls.Config{
			ServerName:         fqdn,
			InsecureSkipVerify: true,
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, sslTimeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(fqdn, "443"))
	if err != nil {
		return false, nil
	}
	defer conn.Close()

	if tlsConn, ok := conn.(*tls.Conn); ok {
		state := tlsConn.ConnectionState()
		if len(state.PeerCertificates) > 0 {
			isExpired := time.Now().After(state.PeerCertificates[0].NotAfter)
			expired = &isExpired
		}
	}
	return true, expired
}

// labelFor renders the name relative to the root; the apex itself reports
// as "@".
func labelFor(fqdn, domain string) string {
	if fqdn == domain {
		return "@"
	}
	if label, found := strings.CutSuffix(fqdn, "."+domain); found {
		return label
	}
	return fqdn
}
