// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/propagation"
)

type PropagationHandler struct {
	checker *propagation.Checker
}

func NewPropagationHandler(checker *propagation.Checker) *PropagationHandler {
	return &PropagationHandler{checker: checker}
}

// Check answers GET /api/propagation/:domain?type=. A resolver that fails or
// times out appears in the results with its status; it never turns the
// response into an error.
func (h *PropagationHandler) Check(c *gin.Context) {
	domain, ok := domainParam(c)
	if !ok {
		return
	}

	recordType := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	if recordType == "" {
		recordType = "A"
	}

	results := h.checker.Check(c.Request.Context(), domain, recordType)
	analysis := propagation.Analyze(results, recordType)

	c.JSON(http.StatusOK, gin.H{
		"domain":    domain,
		"type":      recordType,
		"results":   results,
		"analysis":  analysis,
		"timestamp": time.Now().UTC(),
	})
}
