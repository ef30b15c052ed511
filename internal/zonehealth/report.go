// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package zonehealth

import (
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type Category string

const (
	CategorySOA     Category = "SOA"
	CategoryNS      Category = "NS"
	CategoryA       Category = "A"
	CategoryMX      Category = "MX"
	CategoryCNAME   Category = "CNAME"
	CategoryTXT     Category = "TXT"
	CategoryGeneral Category = "General"
)

// Issue is a single diagnostic finding. Issues keep the order of discovery
// within their check; they are never globally re-sorted.
type Issue struct {
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type Summary struct {
	HasSOA   bool `json:"has_soa"`
	HasNS    bool `json:"has_ns"`
	HasA     bool `json:"has_a"`
	HasMX    bool `json:"has_mx"`
	HasSPF   bool `json:"has_spf"`
	HasDKIM  bool `json:"has_dkim"`
	HasDMARC bool `json:"has_dmarc"`
	NSCount  int  `json:"ns_count"`
	MXCount  int  `json:"mx_count"`
}

// Report is a value object: it carries its own domain and timestamp and no
// reference to anything mutable, so callers may serialize or cache it freely.
type Report struct {
	Domain       string                        `json:"domain"`
	Timestamp    time.Time                     `json:"timestamp"`
	OverallScore int                           `json:"overall_score"`
	Grade        string                        `json:"grade"`
	Issues       []Issue                       `json:"issues"`
	Records      map[string][]dohclient.Record `json:"records"`
	Summary      Summary                       `json:"summary"`
}
