// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	RateLimitWindow      = 60 * time.Second
	RateLimitMaxRequests = 12
	AntiRepeatWindow     = 15 * time.Second
)

type RateLimitResult struct {
	Allowed     bool
	Reason      string
	WaitSeconds int
}

type RateLimiter interface {
	CheckAndRecord(ip, domain string) RateLimitResult
}

type scanRequest struct {
	at     time.Time
	domain string
}

// InMemoryRateLimiter bounds scans per client IP and suppresses rapid
// re-scans of the same domain from one client.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	clients map[string][]scanRequest
}

func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	limiter := &InMemoryRateLimiter{
		clients: make(map[string][]scanRequest),
	}
	go limiter.cleanupLoop()
	return limiter
}

func (l *InMemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, requests := range l.clients {
			l.clients[ip] = inWindow(requests, now)
			if len(l.clients[ip]) == 0 {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

func inWindow(requests []scanRequest, now time.Time) []scanRequest {
	cutoff := now.Add(-RateLimitWindow)
	kept := requests[:0]
	for _, req := range requests {
		if !req.at.Before(cutoff) {
			kept = append(kept, req)
		}
	}
	return kept
}

func waitFor(until time.Time, now time.Time) int {
	wait := int(until.Sub(now).Seconds()) + 1
	if wait < 1 {
		wait = 1
	}
	return wait
}

func (l *InMemoryRateLimiter) CheckAndRecord(ip, domain string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	domain = strings.ToLower(domain)

	requests := inWindow(l.clients[ip], now)
	l.clients[ip] = requests

	if len(requests) >= RateLimitMaxRequests {
		return RateLimitResult{
			Allowed:     false,
			Reason:      "rate_limit",
			WaitSeconds: waitFor(requests[0].at.Add(RateLimitWindow), now),
		}
	}

	repeatCutoff := now.Add(-AntiRepeatWindow)
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].at.Before(repeatCutoff) {
			break
		}
		if requests[i].domain == domain {
			return RateLimitResult{
				Allowed:     false,
				Reason:      "anti_repeat",
				WaitSeconds: waitFor(requests[i].at.Add(AntiRepeatWindow), now),
			}
		}
	}

	l.clients[ip] = append(requests, scanRequest{at: now, domain: domain})
	return RateLimitResult{Allowed: true, Reason: "ok"}
}

// ScanRateLimit guards the scan endpoints; lighter read-only endpoints are
// not limited.
func ScanRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := strings.TrimSpace(c.Param("domain"))
		if domain == "" {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		result := limiter.CheckAndRecord(clientIP, domain)
		if !result.Allowed {
			traceID, _ := c.Get("trace_id")
			slog.Info("Rate limit triggered",
				"trace_id", traceID,
				"ip", clientIP,
				"domain", domain,
				"reason", result.Reason,
				"wait_seconds", result.WaitSeconds,
			)

			var msg string
			switch result.Reason {
			case "rate_limit":
				msg = fmt.Sprintf("Rate limit reached. Please wait %d seconds before trying again.", result.WaitSeconds)
			case "anti_repeat":
				msg = fmt.Sprintf("This domain was recently scanned. Please wait %d seconds before re-scanning.", result.WaitSeconds)
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":        msg,
				"reason":       result.Reason,
				"wait_seconds": result.WaitSeconds,
			})
			return
		}

		c.Next()
	}
}
