// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

const dnsLookupTimeout = 5 * time.Second

type DNSHandler struct {
	doh      *dohclient.Client
	resolver dohclient.Resolver
}

func NewDNSHandler(doh *dohclient.Client, resolver dohclient.Resolver) *DNSHandler {
	return &DNSHandler{doh: doh, resolver: resolver}
}

// Lookup answers GET /api/dns/:domain?type=. The type parameter accepts a
// mnemonic or a numeric code; unknown mnemonics go to the resolver verbatim.
func (h *DNSHandler) Lookup(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	recordType := strings.TrimSpace(c.Query("type"))
	if recordType == "" {
		recordType = "A"
	}

	resp, err := h.doh.Query(c.Request.Context(), h.resolver.Endpoint, domain, recordType, dnsLookupTimeout)
	if err != nil {
		c.JSON(queryErrorStatus(err), gin.H{
			"error":  "DNS lookup failed",
			"domain": domain,
			"type":   recordType,
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"domain":      domain,
		"type":        recordType,
		"resolver":    h.resolver.Name,
		"status":      resp.Status,
		"status_text": resp.StatusText(),
		"answer":      resp.Answer,
		"authority":   resp.Authority,
		"flags": gin.H{
			"ad": resp.AuthenticatedData,
			"cd": resp.CheckingDisabled,
			"tc": resp.Truncated,
			"rd": resp.RecursionDesired,
			"ra": resp.RecursionAvail,
		},
		"timestamp": time.Now().UTC(),
	})
}
