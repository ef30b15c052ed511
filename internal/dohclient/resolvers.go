// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient

// Resolver describes one public DoH endpoint. Descriptors are static for the
// process lifetime: a resolver that is down reports error/timeout for that
// run and is simply tried again on the next call.
type Resolver struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
	Location string `json:"location"`
}

// DefaultResolvers is the global vantage set used for propagation checks.
// Order matters: result sequences preserve this iteration order.
var DefaultResolvers = []Resolver{
	{Key: "google", Name: "Google", Region: "North America", Endpoint: "https://dns.google/resolve", Location: "Mountain View, US"},
	{Key: "cloudflare", Name: "Cloudflare", Region: "Global Anycast", Endpoint: "https://cloudflare-dns.com/dns-query", Location: "San Francisco, US"},
	{Key: "quad9", Name: "Quad9", Region: "Europe", Endpoint: "https://dns.quad9.net:5053/dns-query", Location: "Zurich, CH"},
	{Key: "dnssb", Name: "DNS.SB", Region: "Europe", Endpoint: "https://doh.dns.sb/dns-query", Location: "Frankfurt, DE"},
	{Key: "adguard", Name: "AdGuard", Region: "Europe", Endpoint: "https://dns.adguard-dns.com/resolve", Location: "Limassol, CY"},
	{Key: "nextdns", Name: "NextDNS", Region: "Global Anycast", Endpoint: "https://dns.nextdns.io/dns-query", Location: "Wilmington, US"},
	{Key: "controld", Name: "Control D", Region: "North America", Endpoint: "https://freedns.controld.com/p0", Location: "Toronto, CA"},
}

// FastResolver backs single-resolver fetches (zone health, subdomain probes)
// where latency matters more than vantage diversity.
var FastResolver = DefaultResolvers[1]
