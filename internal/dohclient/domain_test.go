// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient_test

import (
	"strings"
	"testing"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		domain string
		valid  bool
	}{
		{"example.com", true},
		{"sub.example.com", true},
		{"a.b.c.d.example.co.uk", true},
		{"xn--nxasmq6b.example", true},
		{"example.com.", true},
		{"münchen.de", true},
		{"", false},
		{"example", false},
		{"-example.com", false},
		{"example-.com", false},
		{".example.com", false},
		{"example..com", false},
		{"exa mple.com", false},
		{"192.168.1.1", false},
		{strings.Repeat("a", 64) + ".com", false},
		{strings.Repeat("a.", 130) + "com", false},
	}

	for _, tt := range tests {
		name := tt.domain
		if name == "" {
			name = "(empty)"
		}
		t.Run(name, func(t *testing.T) {
			if got := dohclient.ValidateDomain(tt.domain); got != tt.valid {
				t.Errorf("ValidateDomain(%q) = %v, want %v", tt.domain, got, tt.valid)
			}
		})
	}
}

func TestDomainToASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"Example.COM.", "example.com"},
		{"münchen.de", "xn--mnchen-3ya.de"},
		{"bücher.example", "xn--bcher-kva.example"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := dohclient.DomainToASCII(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DomainToASCII(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
