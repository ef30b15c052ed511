// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
)

// domainParam validates and normalizes the :domain path parameter. Invalid
// names are rejected here with a 400 so no engine component ever sees one.
func domainParam(c *gin.Context) (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(c.Param("domain")))
	raw = strings.TrimPrefix(raw, "*.")

	if !dohclient.ValidateDomain(raw) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid domain. Expected a registered name like example.com.",
		})
		return "", false
	}

	ascii, err := dohclient.DomainToASCII(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Domain could not be normalized for lookup.",
		})
		return "", false
	}
	return ascii, true
}

// queryErrorStatus maps the client error taxonomy onto HTTP statuses for the
// endpoints that surface a single upstream call directly.
func queryErrorStatus(err error) int {
	if errors.Is(err, dohclient.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
