// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient_test

import (
	"testing"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

func TestTypeNameRoundTrip(t *testing.T) {
	names := []string{"A", "NS", "CNAME", "SOA", "PTR", "MX", "TXT", "AAAA", "SRV", "DS", "DNSKEY", "CAA"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			code, ok := dohclient.TypeCode(name)
			if !ok {
				t.Fatalf("TypeCode(%q) not found", name)
			}
			if got := dohclient.TypeName(code); got != name {
				t.Errorf("TypeName(TypeCode(%q)) = %q, want %q", name, got, name)
			}
		})
	}
}

func TestTypeCodeValues(t *testing.T) {
	tests := []struct {
		name string
		code uint16
	}{
		{"A", 1},
		{"NS", 2},
		{"CNAME", 5},
		{"SOA", 6},
		{"PTR", 12},
		{"MX", 15},
		{"TXT", 16},
		{"AAAA", 28},
		{"SRV", 33},
		{"DS", 43},
		{"DNSKEY", 48},
		{"CAA", 257},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := dohclient.TypeCode(tt.name)
			if !ok || code != tt.code {
				t.Errorf("TypeCode(%q) = (%d, %v), want (%d, true)", tt.name, code, ok, tt.code)
			}
		})
	}
}

func TestTypeNameUnknownCode(t *testing.T) {
	if got := dohclient.TypeName(65280); got != "TYPE65280" {
		t.Errorf("TypeName(65280) = %q, want TYPE65280", got)
	}
}

func TestTypeCodeNumericString(t *testing.T) {
	code, ok := dohclient.TypeCode("257")
	if !ok || code != 257 {
		t.Errorf("TypeCode(\"257\") = (%d, %v), want (257, true)", code, ok)
	}
}

func TestTypeCodeUnknownMnemonic(t *testing.T) {
	if _, ok := dohclient.TypeCode("NOTATYPE"); ok {
		t.Error("TypeCode(\"NOTATYPE\") should not resolve")
	}
}

func TestTypeCodeCaseInsensitive(t *testing.T) {
	code, ok := dohclient.TypeCode("aaaa")
	if !ok || code != 28 {
		t.Errorf("TypeCode(\"aaaa\") = (%d, %v), want (28, true)", code, ok)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "NOERROR"},
		{1, "FORMERR"},
		{2, "SERVFAIL"},
		{3, "NXDOMAIN"},
		{4, "NOTIMP"},
		{5, "REFUSED"},
		{42, "UNKNOWN(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &dohclient.Response{Status: tt.status}
			if got := r.StatusText(); got != tt.want {
				t.Errorf("StatusText() for %d = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}
