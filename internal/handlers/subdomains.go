// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/subdomains"
)

const maxSubdomainLimit = 200

type SubdomainHandler struct {
	enumerator *subdomains.Enumerator
}

func NewSubdomainHandler(enumerator *subdomains.Enumerator) *SubdomainHandler {
	return &SubdomainHandler{enumerator: enumerator}
}

// Enumerate answers GET /api/subdomains/:domain?ssl=&limit=&common=.
func (h *SubdomainHandler) Enumerate(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	opts := subdomains.Options{
		CheckResolution: true,
		CheckSSL:        boolQuery(c, "ssl", false),
		IncludeCommon:   boolQuery(c, "common", true),
		MaxResults:      subdomains.DefaultMaxResults,
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxSubdomainLimit {
			n = maxSubdomainLimit
		}
		opts.MaxResults = n
	}

	result, err := h.enumerator.Enumerate(c.Request.Context(), domain, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Subdomain enumeration failed",
			"domain": domain,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func boolQuery(c *gin.Context, key string, fallback bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
