// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/scan"
)

type ScanHandler struct {
	orchestrator *scan.Orchestrator
}

func NewScanHandler(orchestrator *scan.Orchestrator) *ScanHandler {
	return &ScanHandler{orchestrator: orchestrator}
}

// FullScan answers GET /api/scan/:domain. Sub-check failures come back as
// per-section statuses inside a 200 response; the scan as a whole fails only
// when the zone is unreachable or the system is at capacity.
func (h *ScanHandler) FullScan(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	report, err := h.orchestrator.FullScan(c.Request.Context(), domain)
	if err != nil {
		if errors.Is(err, scan.ErrAtCapacity) {
			c.Header("Retry-After", "10")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "The scanner is at capacity. Please retry shortly.",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Scan could not be completed",
			"domain": domain,
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
