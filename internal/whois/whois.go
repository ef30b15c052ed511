// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package whois

import (
	"context"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/telemetry"
)

// Adapter wraps a single port-43 WHOIS call with a privacy-heuristic
// classifier. It is deliberately thin: one query, one parse, and a
// placeholder result whenever the registry cannot be reached.

var (
	registrarRe  = regexp.MustCompile(`(?im)^\s*(?:registrar|sponsoring registrar|registrar name)\s*:\s*(.+)$`)
	registrantRe = regexp.MustCompile(`(?im)^\s*(?:registrant organization|registrant name|registrant)\s*:\s*(.+)$`)
)

var whoisServers = map[string]string{
	"com": "whois.verisign-grs.com", "net": "whois.verisign-grs.com",
	"org": "whois.pir.org", "io": "whois.nic.io",
	"dev": "whois.nic.google", "app": "whois.nic.google",
	"co": "whois.nic.co", "me": "whois.nic.me",
	"uk": "whois.nic.uk", "us": "whois.nic.us",
	"ca": "whois.cira.ca", "au": "whois.auda.org.au",
	"de": "whois.denic.de", "fr": "whois.nic.fr",
	"nl": "whois.sidn.nl", "eu": "whois.eu",
	"xyz": "whois.nic.xyz", "info": "whois.afilias.net",
	"biz": "whois.nic.biz", "cloud": "whois.nic.cloud",
	"lol": "whois.nic.lol", "tech": "whois.nic.tech",
}

// privacyIndicators are substrings that mark a record as privacy-proxied or
// redacted. String matching is inherently approximate: an uncommon proxy
// service slips through (false negative) and a registrar mentioning privacy
// in boilerplate can trip it (false positive).
var privacyIndicators = []string{
	"redacted for privacy", "data protected", "privacy protect",
	"whoisguard", "domains by proxy", "contact privacy",
	"withheld for privacy", "privacy service", "identity protection",
	"not disclosed", "gdpr masked", "redacted",
}

type Info struct {
	Domain           string    `json:"domain"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"`
	Registrar        string    `json:"registrar,omitempty"`
	Registrant       string    `json:"registrant,omitempty"`
	PrivacyProtected bool      `json:"privacy_protected"`
	Message          string    `json:"message,omitempty"`
}

type Adapter struct {
	timeout   time.Duration
	server    string
	telemetry *telemetry.Registry
}

type Option func(*Adapter)

func WithTimeout(t time.Duration) Option {
	return func(a *Adapter) { a.timeout = t }
}

// WithServer bypasses the per-TLD server table and sends every query to one
// host:port, used by tests to point at a local fake registry.
func WithServer(hostport string) Option {
	return func(a *Adapter) { a.server = hostport }
}

func WithTelemetry(reg *telemetry.Registry) Option {
	return func(a *Adapter) { a.telemetry = reg }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{timeout: 10 * time.Second}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Lookup never fails from the caller's perspective: any transport or parse
// problem degrades to a "privacy protected / unavailable" placeholder.
func (a *Adapter) Lookup(ctx context.Context, domain string) Info {
	info := Info{
		Domain:    domain,
		Timestamp: time.Now().UTC(),
	}

	raw, err := a.query(ctx, domain)
	if err != nil {
		slog.Debug("WHOIS query failed", "domain", domain, "error", err)
		if a.telemetry != nil {
			a.telemetry.RecordFailure("whois", err.Error())
		}
		info.Status = "unavailable"
		info.PrivacyProtected = true
		info.Message = "WHOIS data privacy protected or unavailable"
		return info
	}

	info.Status = "success"
	info.Registrar = parseField(registrarRe, raw)
	info.Registrant = parseField(registrantRe, raw)
	info.PrivacyProtected = IsPrivacyProtected(raw)
	if info.Registrar == "" && info.Registrant == "" {
		info.Status = "unavailable"
		info.Message = "WHOIS data privacy protected or unavailable"
	}
	return info
}

func (a *Adapter) query(ctx context.Context, domain string) (string, error) {
	addr := a.server
	if addr == "" {
		tld := domain[strings.LastIndex(domain, ".")+1:]
		server, ok := whoisServers[tld]
		if !ok {
			server = tld + ".whois-servers.net"
		}
		addr = net.JoinHostPort(server, "43")
	}

	dialer := &net.Dialer{Timeout: a.timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(a.timeout))

	if _, err := conn.Write([]byte(domain + "\r\n")); err != nil {
		return "", err
	}

	var buf [8192]byte
	var response []byte
	for {
		n, err := conn.Read(buf[:])
		if n > 0 {
			response = append(response, buf[:n]...)
		}
		if err != nil || len(response) > 32768 {
			break
		}
	}

	if a.telemetry != nil {
		a.telemetry.RecordSuccess("whois", time.Since(start))
	}
	return string(response), nil
}

func parseField(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	val := strings.TrimSpace(m[1])
	lower := strings.ToLower(val)
	if val == "" || strings.HasPrefix(lower, "http") || lower == "not available" {
		return ""
	}
	return val
}

// IsPrivacyProtected is the named privacy heuristic: substring matching
// against known redaction phrasings, nothing smarter.
func IsPrivacyProtected(raw string) bool {
	lower := strings.ToLower(raw)
	for _, indicator := range privacyIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
