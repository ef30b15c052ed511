// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package zonehealth

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

// Evaluate runs the rule battery over an already-fetched record set. Every
// check is a pure function: identical records always produce an identical
// report (scoring happens separately so fetch warnings can be folded in).
func Evaluate(domain string, records map[string][]dohclient.Record) *Report {
	report := &Report{
		Domain:    domain,
		Timestamp: time.Now().UTC(),
		Records:   records,
	}

	report.Issues = append(report.Issues, checkSOA(records["SOA"])...)
	report.Issues = append(report.Issues, checkNS(records["NS"])...)
	report.Issues = append(report.Issues, checkA(records["A"])...)
	report.Issues = append(report.Issues, checkMX(records["MX"])...)
	report.Issues = append(report.Issues, checkCNAME(records["CNAME"], records)...)

	txtIssues, hasSPF, hasDKIM, hasDMARC := checkTXT(records["TXT"])
	report.Issues = append(report.Issues, txtIssues...)

	report.Summary = Summary{
		HasSOA:   len(records["SOA"]) > 0,
		HasNS:    len(records["NS"]) > 0,
		HasA:     len(records["A"]) > 0,
		HasMX:    len(records["MX"]) > 0,
		HasSPF:   hasSPF,
		HasDKIM:  hasDKIM,
		HasDMARC: hasDMARC,
		NSCount:  len(records["NS"]),
		MXCount:  len(records["MX"]),
	}
	return report
}

const (
	soaRefreshMin = 1200
	soaRefreshMax = 43200
	soaTTLMin     = 300
	aTTLMin       = 60
)

func checkSOA(records []dohclient.Record) []Issue {
	if len(records) == 0 {
		return []Issue{{
			Severity:       SeverityCritical,
			Category:       CategorySOA,
			Message:        "No SOA record found",
			Recommendation: "Every delegated zone must publish a Start of Authority record.",
		}}
	}

	var issues []Issue
	soa := records[0]

	// SOA rdata: mname rname serial refresh retry expire minimum
	fields := strings.Fields(soa.Data)
	if len(fields) < 7 {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategorySOA,
			Message:  "SOA record is malformed and could not be parsed",
		})
	}

	rname := fields[1]
	refresh, refreshErr := strconv.Atoi(fields[3])

	if refreshErr == nil {
		if refresh < soaRefreshMin {
			issues = append(issues, Issue{
				Severity:       SeverityWarning,
				Category:       CategorySOA,
				Message:        fmt.Sprintf("SOA refresh interval %ds is very aggressive", refresh),
				Recommendation: "Secondaries will poll constantly; 1200s or more is typical.",
			})
		} else if refresh > soaRefreshMax {
			issues = append(issues, Issue{
				Severity:       SeverityInfo,
				Category:       CategorySOA,
				Message:        fmt.Sprintf("SOA refresh interval %ds is unusually lax", refresh),
				Recommendation: "Zone changes may take over 12 hours to reach secondaries.",
			})
		}
	}

	if soa.TTL < soaTTLMin {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategorySOA,
			Message:  fmt.Sprintf("SOA TTL %ds is below %ds", soa.TTL, soaTTLMin),
		})
	}

	// DNS encodes the @ of the admin mailbox as the first dot of rname.
	if !strings.Contains(strings.TrimSuffix(rname, "."), ".") {
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Category:       CategorySOA,
			Message:        fmt.Sprintf("SOA admin contact %q does not look like a mailbox", rname),
			Recommendation: "The RNAME field should encode an email address, e.g. hostmaster.example.com.",
		})
	}

	return issues
}

func checkNS(records []dohclient.Record) []Issue {
	if len(records) == 0 {
		return []Issue{{
			Severity:       SeverityCritical,
			Category:       CategoryNS,
			Message:        "No NS records found",
			Recommendation: "A zone without nameservers cannot be resolved.",
		}}
	}

	var issues []Issue
	if len(records) < 2 {
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Category:       CategoryNS,
			Message:        "Only one nameserver is configured",
			Recommendation: "Publish at least two NS records for redundancy.",
		})
		return issues
	}

	suffixes := make(map[string]bool)
	for _, rec := range records {
		suffixes[nsSuffix(rec.Data)] = true
	}
	if len(suffixes) == 1 {
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Category:       CategoryNS,
			Message:        "All nameservers share one network suffix",
			Recommendation: "A single provider outage takes the whole zone down; consider a secondary DNS network.",
		})
	}
	return issues
}

// nsSuffix reduces a nameserver host to its last three labels, the
// granularity at which shared-network risk is judged.
func nsSuffix(host string) string {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	labels := strings.Split(host, ".")
	if len(labels) > 3 {
		labels = labels[len(labels)-3:]
	}
	return strings.Join(labels, ".")
}

var privateIPPrefixes = []string{"10.", "192.168.", "127."}

// isPrivateAddress flags the RFC 1918 and loopback ranges that should never
// appear in a public zone.
func isPrivateAddress(data string) bool {
	for _, prefix := range privateIPPrefixes {
		if strings.HasPrefix(data, prefix) {
			return true
		}
	}
	if strings.HasPrefix(data, "172.") {
		parts := strings.SplitN(data, ".", 3)
		if len(parts) >= 2 {
			if second, err := strconv.Atoi(parts[1]); err == nil && second >= 16 && second <= 31 {
				return true
			}
		}
	}
	return false
}

func checkA(records []dohclient.Record) []Issue {
	if len(records) == 0 {
		return []Issue{{
			Severity: SeverityInfo,
			Category: CategoryA,
			Message:  "No A records found (not required for every zone)",
		}}
	}

	var issues []Issue
	for _, rec := range records {
		if isPrivateAddress(rec.Data) {
			issues = append(issues, Issue{
				Severity:       SeverityCritical,
				Category:       CategoryA,
				Message:        fmt.Sprintf("A record points at private address %s", rec.Data),
				Recommendation: "Private-range addresses leak internal topology and are unreachable from the internet.",
			})
		}
	}
	for _, rec := range records {
		if rec.TTL < aTTLMin {
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Category: CategoryA,
				Message:  fmt.Sprintf("A record TTL %ds is very low", rec.TTL),
			})
			break
		}
	}
	return issues
}

func checkMX(records []dohclient.Record) []Issue {
	if len(records) == 0 {
		return []Issue{{
			Severity: SeverityInfo,
			Category: CategoryMX,
			Message:  "No MX records found; the domain does not receive mail",
		}}
	}

	var issues []Issue
	priorities := make(map[string]bool)
	for _, rec := range records {
		priority, host := splitMX(rec.Data)
		priorities[priority] = true

		if net.ParseIP(host) != nil {
			issues = append(issues, Issue{
				Severity:       SeverityCritical,
				Category:       CategoryMX,
				Message:        fmt.Sprintf("MX target %s is an IP address, which RFC 2181 forbids", host),
				Recommendation: "MX must point at a hostname with its own address records.",
			})
		}
	}

	if len(records) > 1 && len(priorities) == 1 {
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Category:       CategoryMX,
			Message:        "All MX records share one priority; there is no backup tier",
			Recommendation: "Assign a higher preference value to at least one fallback exchanger.",
		})
	}
	return issues
}

func splitMX(data string) (priority, host string) {
	fields := strings.Fields(data)
	if len(fields) >= 2 {
		return fields[0], strings.TrimSuffix(fields[1], ".")
	}
	return "", strings.TrimSuffix(data, ".")
}

// checkCNAME flags an apex CNAME coexisting with other apex record types,
// which most authoritative servers reject outright.
func checkCNAME(records []dohclient.Record, all map[string][]dohclient.Record) []Issue {
	if len(records) == 0 {
		return nil
	}
	for _, other := range []string{"A", "AAAA", "MX", "TXT"} {
		if len(all[other]) > 0 {
			return []Issue{{
				Severity:       SeverityWarning,
				Category:       CategoryCNAME,
				Message:        "CNAME at the zone apex coexists with other record types",
				Recommendation: "Use ALIAS/ANAME flattening at the apex instead of a bare CNAME.",
			}}
		}
	}
	return nil
}

func checkTXT(records []dohclient.Record) (issues []Issue, hasSPF, hasDKIM, hasDMARC bool) {
	if len(records) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Category: CategoryTXT,
			Message:  "No TXT records found",
		})
	}

	var spfRecords []string
	for _, rec := range records {
		data := strings.ToLower(strings.Trim(rec.Data, `"`))
		if strings.Contains(data, "v=spf1") {
			spfRecords = append(spfRecords, data)
		}
		if strings.Contains(data, "v=dkim1") {
			hasDKIM = true
		}
		// In-zone scan only. A real DMARC policy lives at _dmarc.<domain>,
		// which this engine deliberately does not query, so this flag is a
		// known-limited heuristic and never claims a true DMARC lookup.
		if strings.Contains(data, "v=dmarc1") {
			hasDMARC = true
		}
	}

	switch len(spfRecords) {
	case 0:
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Category:       CategoryTXT,
			Message:        "No SPF record found",
			Recommendation: "Publish a v=spf1 TXT record to limit who may send mail for this domain.",
		})
	case 1:
		hasSPF = true
		spf := spfRecords[0]
		if !strings.Contains(spf, "~all") && !strings.Contains(spf, "-all") && !strings.Contains(spf, "?all") {
			issues = append(issues, Issue{
				Severity:       SeverityWarning,
				Category:       CategoryTXT,
				Message:        "SPF record has no terminal all mechanism",
				Recommendation: "End the record with ~all or -all so unlisted senders are rejected.",
			})
		}
	default:
		hasSPF = true
		issues = append(issues, Issue{
			Severity:       SeverityCritical,
			Category:       CategoryTXT,
			Message:        fmt.Sprintf("%d SPF records found; receivers treat multiple SPF records as a permanent error", len(spfRecords)),
			Recommendation: "Merge all mechanisms into a single v=spf1 record.",
		})
	}

	return issues, hasSPF, hasDKIM, hasDMARC
}
