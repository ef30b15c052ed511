// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/zonehealth"
)

type ZoneHealthHandler struct {
	engine *zonehealth.Engine
}

func NewZoneHealthHandler(engine *zonehealth.Engine) *ZoneHealthHandler {
	return &ZoneHealthHandler{engine: engine}
}

// Analyze answers GET /api/health/:domain. Per-record-type fetch failures are
// folded into the report as General warnings; the only hard failure is a zone
// with no reachable records at all.
func (h *ZoneHealthHandler) Analyze(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	report, err := h.engine.Analyze(c.Request.Context(), domain)
	if err != nil {
		if errors.Is(err, zonehealth.ErrZoneUnreachable) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  "No DNS records could be fetched for this domain",
				"domain": domain,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Zone health analysis failed",
			"domain": domain,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
