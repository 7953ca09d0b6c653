// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, search tuning, LLM providers, and observability features.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults that are part of the service contract rather than tuning knobs.
const (
	// DefaultKeywordFetchCap is how many candidates keyword search pulls
	// from the index before identity dedup and pagination.
	DefaultKeywordFetchCap = 200

	// DefaultSemanticK is the number of nearest neighbors requested per
	// semantic query.
	DefaultSemanticK = 50

	// DefaultSemanticPool is the candidate pool examined by the vector
	// index per semantic query.
	DefaultSemanticPool = 500

	// DefaultRecommendationCap bounds similar-course recommendations.
	DefaultRecommendationCap = 4
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Directory holding the SQLite database and vector store

	// Search Configuration
	KeywordFetchCap   int           // Candidate over-fetch cap for keyword search
	SemanticK         int           // Nearest neighbors per semantic query
	SemanticPool      int           // Vector index candidate pool
	SearchCacheTTL    time.Duration // TTL for cached list/search responses
	DefaultPageSize   int
	MaxPageSize       int
	RecommendationCap int

	// LLM Configuration
	OpenAIAPIKey       string // OpenAI key for embeddings and generation
	OpenAIBaseURL      string // Optional OpenAI-compatible gateway URL
	GeminiAPIKey       string // Gemini key for generation fallback
	GenerationModel    string // Primary chat model (default: gpt-4o-mini)
	GeminiModel        string // Fallback chat model (default: gemini-2.0-flash)
	EmbeddingModel     string // Embedding model (default: text-embedding-3-small)
	GenerationTimeout  time.Duration
	GenerationRetries  int
	CompareConcurrency int // Bounded worker count for per-course scoring

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // Empty disables basic auth on /metrics

	// Sentry Configuration
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "8000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		DataDir: getEnv(EnvDataDir, "./data"),

		KeywordFetchCap:   getIntEnv(EnvKeywordFetchCap, DefaultKeywordFetchCap),
		SemanticK:         getIntEnv(EnvSemanticK, DefaultSemanticK),
		SemanticPool:      getIntEnv(EnvSemanticPool, DefaultSemanticPool),
		SearchCacheTTL:    getDurationEnv(EnvSearchCacheTTL, 5*time.Minute),
		DefaultPageSize:   getIntEnv(EnvDefaultPageSize, 10),
		MaxPageSize:       getIntEnv(EnvMaxPageSize, 100),
		RecommendationCap: getIntEnv(EnvRecommendationCap, DefaultRecommendationCap),

		OpenAIAPIKey:       getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL:      getEnv(EnvOpenAIBaseURL, ""),
		GeminiAPIKey:       getEnv(EnvGeminiAPIKey, ""),
		GenerationModel:    getEnv(EnvGenerationModel, "gpt-4o-mini"),
		GeminiModel:        getEnv(EnvGeminiModel, "gemini-2.0-flash"),
		EmbeddingModel:     getEnv(EnvEmbeddingModel, "text-embedding-3-small"),
		GenerationTimeout:  getDurationEnv(EnvGenerationTimeout, 30*time.Second),
		GenerationRetries:  getIntEnv(EnvGenerationRetries, 2),
		CompareConcurrency: getIntEnv(EnvCompareConcurrency, 3),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime behavior.
func (c *Config) Validate() error {
	if c.KeywordFetchCap <= 0 {
		return fmt.Errorf("keyword fetch cap must be positive, got %d", c.KeywordFetchCap)
	}
	if c.SemanticK <= 0 || c.SemanticPool < c.SemanticK {
		return fmt.Errorf("semantic search requires 0 < k <= pool, got k=%d pool=%d", c.SemanticK, c.SemanticPool)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 0 < default <= max, got default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.CompareConcurrency <= 0 {
		return fmt.Errorf("compare concurrency must be positive, got %d", c.CompareConcurrency)
	}
	return nil
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "moduway.db")
}

// VectorStorePath returns the persistence directory for the vector index
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.DataDir, "chromem", "courses")
}

// GenerationEnabled reports whether at least one text-generation provider
// is configured.
func (c *Config) GenerationEnabled() bool {
	return c.OpenAIAPIKey != "" || c.GeminiAPIKey != ""
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns the environment variable as int or a default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getFloatEnv returns the environment variable as float64 or a default
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv returns the environment variable as duration or a default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
