// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port               string
	AppVersion         string
	CTEndpoint         string
	MaxConcurrentScans int
	PremiumEnabled     bool
}

func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	ctEndpoint := os.Getenv("CT_ENDPOINT")
	if ctEndpoint == "" {
		ctEndpoint = "https://crt.sh"
	}

	maxScans := 6
	if raw := os.Getenv("MAX_CONCURRENT_SCANS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("MAX_CONCURRENT_SCANS must be a positive integer, got %q", raw)
		}
		maxScans = n
	}

	return &Config{
		Port:               port,
		AppVersion:         "1.4.2",
		CTEndpoint:         ctEndpoint,
		MaxConcurrentScans: maxScans,
		PremiumEnabled:     os.Getenv("PREMIUM_FEATURES") == "1",
	}, nil
}
