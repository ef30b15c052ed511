// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package whois_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/KaliStudent/dnsinfo.lol/internal/whois"
)

// fakeRegistry accepts one port-43 style query and replies with the canned
// response.
func fakeRegistry(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 256)
				_, _ = c.Read(buf)
				_, _ = c.Write([]byte(response))
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestLookupParsesRegistrar(t *testing.T) {
	addr := fakeRegistry(t, "Domain Name: EXAMPLE.COM\r\nRegistrar: Example Registrar LLC\r\nRegistrant Organization: Example Corp\r\n")

	adapter := whois.New(whois.WithServer(addr), whois.WithTimeout(2*time.Second))
	info := adapter.Lookup(context.Background(), "example.com")

	if info.Status != "success" {
		t.Fatalf("expected success, got %s (%s)", info.Status, info.Message)
	}
	if info.Registrar != "Example Registrar LLC" {
		t.Errorf("registrar = %q", info.Registrar)
	}
	if info.Registrant != "Example Corp" {
		t.Errorf("registrant = %q", info.Registrant)
	}
	if info.PrivacyProtected {
		t.Error("no redaction indicators present, privacy flag should be false")
	}
}

func TestLookupDetectsPrivacy(t *testing.T) {
	addr := fakeRegistry(t, "Registrar: Example Registrar LLC\r\nRegistrant Organization: REDACTED FOR PRIVACY\r\n")

	adapter := whois.New(whois.WithServer(addr), whois.WithTimeout(2*time.Second))
	info := adapter.Lookup(context.Background(), "example.com")

	if !info.PrivacyProtected {
		t.Error("expected privacy_protected=true")
	}
}

func TestLookupUnreachableDegradesToPlaceholder(t *testing.T) {
	// Reserved port with nothing listening.
	adapter := whois.New(whois.WithServer("127.0.0.1:1"), whois.WithTimeout(500*time.Millisecond))
	info := adapter.Lookup(context.Background(), "example.com")

	if info.Status != "unavailable" {
		t.Errorf("expected unavailable placeholder, got %s", info.Status)
	}
	if !info.PrivacyProtected {
		t.Error("placeholder result reports as privacy protected")
	}
	if info.Message == "" {
		t.Error("placeholder should carry an explanatory message")
	}
	if info.Domain != "example.com" || info.Timestamp.IsZero() {
		t.Error("placeholder must still carry domain and timestamp")
	}
}

func TestIsPrivacyProtected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"whoisguard", "Registrant Name: WhoisGuard Protected", true},
		{"proxy service", "Registrant Organization: Domains By Proxy, LLC", true},
		{"gdpr", "Registrant Name: GDPR Masked", true},
		{"redacted", "Registrant: REDACTED", true},
		{"clean", "Registrant Organization: Example Corp", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := whois.IsPrivacyProtected(tt.raw); got != tt.want {
				t.Errorf("IsPrivacyProtected(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
