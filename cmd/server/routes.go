// Package main provides the moduway API server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moduway/moduway-go/internal/api"
	"github.com/moduway/moduway-go/internal/config"
	"github.com/moduway/moduway-go/internal/search"
	"github.com/moduway/moduway-go/internal/storage"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, handler *api.Handler, db *storage.DB, keywordIndex *search.KeywordIndex, vectorIndex *search.VectorIndex, registry *prometheus.Registry, cfg *config.Config) {
	// Root endpoint - redirect to the project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/moduway/moduway-go")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Health check endpoints
	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - checks if the application is ready to serve traffic (full dependency check)
	readyHandler := func(c *gin.Context) {
		if err := db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		if !keywordIndex.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "keyword index not built",
			})
			return
		}

		courseCount, _ := db.CountCourses(c.Request.Context())

		// Semantic search is optional; report its state without gating
		// readiness on it.
		semantic := gin.H{"enabled": false}
		if vectorIndex != nil {
			semantic = gin.H{
				"enabled": vectorIndex.Ready(),
				"indexed": vectorIndex.Count(),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"catalog": gin.H{
				"courses": courseCount,
			},
			"semantic_search": semantic,
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// API routes
	handler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
