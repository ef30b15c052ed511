// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/KaliStudent/dnsinfo.lol/internal/config"
	"github.com/KaliStudent/dnsinfo.lol/internal/dohclient"
	"github.com/KaliStudent/dnsinfo.lol/internal/handlers"
	"github.com/KaliStudent/dnsinfo.lol/internal/middleware"
	"github.com/KaliStudent/dnsinfo.lol/internal/propagation"
	"github.com/KaliStudent/dnsinfo.lol/internal/scan"
	"github.com/KaliStudent/dnsinfo.lol/internal/subdomains"
	"github.com/KaliStudent/dnsinfo.lol/internal/telemetry"
	"github.com/KaliStudent/dnsinfo.lol/internal/whois"
	"github.com/KaliStudent/dnsinfo.lol/internal/zonehealth"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	dohclient.SetUserAgentVersion(cfg.AppVersion)

	registry := telemetry.NewRegistry()
	doh := dohclient.New()

	checker := propagation.New(doh, propagation.WithTelemetry(registry))
	healthEngine := zonehealth.New(doh)
	enumerator := subdomains.New(doh,
		subdomains.WithCTEndpoint(cfg.CTEndpoint),
		subdomains.WithTelemetry(registry),
	)
	whoisAdapter := whois.New(whois.WithTelemetry(registry))

	orchestrator := scan.New(healthEngine, checker, enumerator, whoisAdapter,
		scan.WithMaxConcurrent(cfg.MaxConcurrentScans),
	)
	slog.Info("DNS intelligence engine initialized",
		"resolvers", len(dohclient.DefaultResolvers),
		"ct_endpoint", cfg.CTEndpoint,
		"max_concurrent_scans", cfg.MaxConcurrentScans,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RequestContext())
	router.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewInMemoryRateLimiter()
	slog.Info("Rate limiter initialized", "backend", "in-memory", "max_requests", middleware.RateLimitMaxRequests, "window", middleware.RateLimitWindow)

	dnsHandler := handlers.NewDNSHandler(doh, dohclient.FastResolver)
	propagationHandler := handlers.NewPropagationHandler(checker)
	zoneHandler := handlers.NewZoneHealthHandler(healthEngine)
	subdomainHandler := handlers.NewSubdomainHandler(enumerator)
	whoisHandler := handlers.NewWhoisHandler(whoisAdapter)
	scanHandler := handlers.NewScanHandler(orchestrator)
	healthHandler := handlers.NewHealthHandler(registry, cfg.AppVersion)

	router.GET("/go/health", healthHandler.HealthCheck)

	api := router.Group("/api")
	api.GET("/dns/:domain", dnsHandler.Lookup)
	api.GET("/propagation/:domain", propagationHandler.Check)
	api.GET("/health/:domain", zoneHandler.Analyze)
	api.GET("/whois/:domain", whoisHandler.Lookup)
	api.GET("/subdomains/:domain", middleware.ScanRateLimit(rateLimiter), subdomainHandler.Enumerate)
	api.GET("/scan/:domain", middleware.ScanRateLimit(rateLimiter), scanHandler.FullScan)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	slog.Info("Starting DNS intelligence server", "address", addr, "version", cfg.AppVersion)

	if err := router.Run(addr); err != nil {
		slog.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
