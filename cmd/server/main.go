// Package main provides the moduway API server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/moduway/moduway-go/internal/api"
	"github.com/moduway/moduway-go/internal/compare"
	"github.com/moduway/moduway-go/internal/config"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/search"
	"github.com/moduway/moduway-go/internal/sentry"
	"github.com/moduway/moduway-go/internal/storage"
)

// HTTP server timeouts. Comparison requests can hold two LLM calls per
// course, so the write timeout leaves room for the generation timeout plus
// retries.
const (
	httpReadTimeout  = 10 * time.Second
	httpWriteTimeout = 90 * time.Second
	httpIdleTimeout  = 120 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.Info("Starting moduway API server")

	// Initialize Sentry error tracking (no-op without a DSN)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	// Connect to database
	ctx := context.Background()
	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Build the keyword index from the stored catalog
	courses, err := db.GetAllCourses(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to load courses")
	}
	keywordIndex := search.NewKeywordIndex(log)
	if err := keywordIndex.Build(courses); err != nil {
		log.WithError(err).Fatal("Failed to build keyword index")
	}
	log.WithField("course_count", len(courses)).Info("Keyword index built")

	// Create vector index for semantic search (optional - requires OpenAI API key)
	var vectorIndex *search.VectorIndex
	if cfg.OpenAIAPIKey != "" {
		embedder := genai.NewEmbeddingClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.OpenAIBaseURL, m)
		vectorIndex, err = search.NewVectorIndex(cfg.VectorStorePath(), embedder.NewEmbeddingFunc(), cfg.SemanticPool, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create vector index, semantic search disabled")
			vectorIndex = nil
		} else if err := vectorIndex.Initialize(ctx); err != nil {
			log.WithError(err).Warn("Failed to initialize vector index, semantic search disabled")
			vectorIndex = nil
		} else if vectorIndex.Count() == 0 && len(courses) > 0 {
			// Index the catalog in the background so startup is not blocked
			// on one embedding call per course.
			go func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithField("panic", r).Error("Panic in vector indexing goroutine")
					}
				}()
				if err := vectorIndex.AddCourses(context.Background(), courses); err != nil {
					log.WithError(err).Warn("Background vector indexing failed")
					return
				}
				log.WithField("course_count", len(courses)).Info("Vector index populated")
			}()
		}
	} else {
		log.Info("OpenAI API key not configured, semantic search disabled")
	}
	if vectorIndex != nil {
		log.WithField("indexed", vectorIndex.Count()).Info("Vector index ready")
	}

	// Create the narrative generator chain: OpenAI primary, Gemini fallback
	generator := buildGenerator(ctx, cfg, m, log)
	if generator != nil {
		defer func() { _ = generator.Close() }()
	}

	// Wire the domain services
	searcher := search.NewOrchestrator(db, keywordIndex, vectorIndex, searchTuning(cfg), m, log)
	comparer := compare.NewOrchestrator(db, generator, m, log, cfg.CompareConcurrency)
	summarizer := compare.NewSummarizer(db, generator, log)
	handler := api.New(cfg, db, searcher, comparer, summarizer, m, log)

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	if sentry.IsEnabled() {
		router.Use(sentryMiddleware())
	}

	// Setup routes
	setupRoutes(router, handler, db, keywordIndex, vectorIndex, registry, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// buildGenerator assembles the narrative generation chain from whichever
// providers are configured. Returns nil when generation is disabled.
func buildGenerator(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) genai.Generator {
	primary := genai.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.GenerationModel, cfg.OpenAIBaseURL)

	var fallback genai.Generator
	if cfg.GeminiAPIKey != "" {
		var err error
		fallback, err = genai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.WithError(err).Warn("Failed to create Gemini generator, fallback disabled")
			fallback = nil
		}
	}

	switch {
	case primary == nil && fallback == nil:
		log.Info("No generation provider configured, narrative payloads use fallbacks")
		return nil
	case primary == nil:
		log.WithField("provider", fallback.Provider().String()).Info("Narrative generation enabled, single provider")
		return genai.NewFallbackGenerator(fallback, nil, retryConfig(cfg), m)
	default:
		providers := map[string]any{"primary": primary.Provider().String()}
		if fallback != nil {
			providers["fallback"] = fallback.Provider().String()
		}
		log.WithFields(providers).Info("Narrative generation enabled")
		return genai.NewFallbackGenerator(primary, fallback, retryConfig(cfg), m)
	}
}

func searchTuning(cfg *config.Config) search.Tuning {
	return search.Tuning{
		KeywordFetchCap: cfg.KeywordFetchCap,
		SemanticK:       cfg.SemanticK,
	}
}

func retryConfig(cfg *config.Config) genai.RetryConfig {
	rc := genai.DefaultRetryConfig()
	if cfg.GenerationRetries > 0 {
		rc.MaxAttempts = cfg.GenerationRetries
	}
	if cfg.GenerationTimeout > 0 {
		rc.CallTimeout = cfg.GenerationTimeout
	}
	return rc
}
