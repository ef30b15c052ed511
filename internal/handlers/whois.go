// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/whois"
)

type WhoisHandler struct {
	adapter *whois.Adapter
}

func NewWhoisHandler(adapter *whois.Adapter) *WhoisHandler {
	return &WhoisHandler{adapter: adapter}
}

// Lookup answers GET /api/whois/:domain. The adapter absorbs every failure
// into a placeholder result, so this endpoint always returns 200 for a valid
// domain.
func (h *WhoisHandler) Lookup(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	info := h.adapter.Lookup(c.Request.Context(), domain)
	c.JSON(http.StatusOK, info)
}
