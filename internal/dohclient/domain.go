// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var (
	labelRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	tldRegex   = regexp.MustCompile(`^[a-zA-Z]{2,}$`)
	asciiRegex = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)
)

const maxLabelDepth = 10

// DomainToASCII normalizes a possibly-internationalized domain to its
// punycode form for lookups.
func DomainToASCII(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, ".")

	p := idna.New(idna.MapForLookup(), idna.Transitional(false))
	ascii, err := p.ToASCII(domain)
	if err != nil {
		// Plain-ASCII names that trip strict IDNA mapping are still fine
		// for DNS as long as each label is well formed.
		if asciiRegex.MatchString(domain) {
			for _, label := range strings.Split(domain, ".") {
				if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
					return "", err
				}
			}
			return domain, nil
		}
		return "", err
	}
	return ascii, nil
}

// ValidateDomain reports whether a string is a queryable registered name:
// lowercase-normalizable, ≤253 chars, labels ≤63 chars, at least two labels,
// and a TLD that is not an IP octet.
func ValidateDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}

	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, ".")
	if domain == "" {
		return false
	}

	ascii, err := DomainToASCII(domain)
	if err != nil {
		return false
	}

	if strings.Contains(ascii, "..") || strings.HasPrefix(ascii, ".") || strings.HasPrefix(ascii, "-") {
		return false
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 || len(labels) > maxLabelDepth {
		return false
	}

	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		if !labelRegex.MatchString(label) {
			return false
		}
	}

	tld := labels[len(labels)-1]
	return tldRegex.MatchString(tld) || strings.HasPrefix(tld, "xn--")
}
