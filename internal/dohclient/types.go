// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/miekg/dns"
)

// Record is the canonical answer shape every component downstream of the
// client consumes. Data is an opaque string; its grammar depends on TypeName.
type Record struct {
	Name     string `json:"name"`
	Type     uint16 `json:"type"`
	TypeName string `json:"type_name"`
	TTL      uint32 `json:"ttl"`
	Data     string `json:"data"`
}

type Question struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
}

// Response is the normalized DoH answer. Upstream resolvers disagree on which
// optional fields they emit, so every field has an explicit zero default and
// nothing past the client sees raw provider JSON.
type Response struct {
	Status     int        `json:"status"`
	Question   []Question `json:"question,omitempty"`
	Answer     []Record   `json:"answer"`
	Authority  []Record   `json:"authority,omitempty"`
	Additional []Record   `json:"additional,omitempty"`

	AuthenticatedData bool `json:"ad"`
	CheckingDisabled  bool `json:"cd"`
	Truncated         bool `json:"tc"`
	RecursionDesired  bool `json:"rd"`
	RecursionAvail    bool `json:"ra"`
}

var rcodeNames = map[int]string{
	0: "NOERROR",
	1: "FORMERR",
	2: "SERVFAIL",
	3: "NXDOMAIN",
	4: "NOTIMP",
	5: "REFUSED",
}

// StatusText renders the DNS rcode of the response; codes outside the common
// set render as UNKNOWN(n).
func (r *Response) StatusText() string {
	if name, ok := rcodeNames[r.Status]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", r.Status)
}

var typeNames = map[uint16]string{
	uint16(dns.TypeA):      "A",
	uint16(dns.TypeNS):     "NS",
	uint16(dns.TypeCNAME):  "CNAME",
	uint16(dns.TypeSOA):    "SOA",
	uint16(dns.TypePTR):    "PTR",
	uint16(dns.TypeMX):     "MX",
	uint16(dns.TypeTXT):    "TXT",
	uint16(dns.TypeAAAA):   "AAAA",
	uint16(dns.TypeSRV):    "SRV",
	uint16(dns.TypeDS):     "DS",
	uint16(dns.TypeDNSKEY): "DNSKEY",
	uint16(dns.TypeCAA):    "CAA",
}

var typeCodes = func() map[string]uint16 {
	m := make(map[string]uint16, len(typeNames))
	for code, name := range typeNames {
		m[name] = code
	}
	return m
}()

// TypeName maps a numeric record type to its mnemonic. Codes outside the
// table render as TYPE<n> so an exotic answer still produces a stable label.
func TypeName(code uint16) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return "TYPE" + strconv.Itoa(int(code))
}

// TypeCode resolves a mnemonic or numeric string to a type code. Unknown
// mnemonics return ok=false; callers pass those through to the resolver
// verbatim and let the server decide validity.
func TypeCode(name string) (uint16, bool) {
	if code, ok := typeCodes[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return code, true
	}
	if n, err := strconv.ParseUint(strings.TrimSpace(name), 10, 16); err == nil {
		return uint16(n), true
	}
	return 0, false
}
