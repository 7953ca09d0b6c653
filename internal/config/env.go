// Package config defines environment variable keys for configuration.
package config

//nolint:gosec // Environment variable keys are not credentials.
const (
	// Server
	EnvPort            = "MODUWAY_PORT"
	EnvLogLevel        = "MODUWAY_LOG_LEVEL"
	EnvShutdownTimeout = "MODUWAY_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "MODUWAY_DATA_DIR"

	// Search
	EnvKeywordFetchCap   = "MODUWAY_KEYWORD_FETCH_CAP"
	EnvSemanticK         = "MODUWAY_SEMANTIC_K"
	EnvSemanticPool      = "MODUWAY_SEMANTIC_POOL"
	EnvSearchCacheTTL    = "MODUWAY_SEARCH_CACHE_TTL"
	EnvDefaultPageSize   = "MODUWAY_DEFAULT_PAGE_SIZE"
	EnvMaxPageSize       = "MODUWAY_MAX_PAGE_SIZE"
	EnvRecommendationCap = "MODUWAY_RECOMMENDATION_CAP"

	// LLM Feature
	EnvOpenAIAPIKey       = "MODUWAY_OPENAI_API_KEY"
	EnvOpenAIBaseURL      = "MODUWAY_OPENAI_BASE_URL"
	EnvGeminiAPIKey       = "MODUWAY_GEMINI_API_KEY"
	EnvGenerationModel    = "MODUWAY_GENERATION_MODEL"
	EnvGeminiModel        = "MODUWAY_GEMINI_MODEL"
	EnvEmbeddingModel     = "MODUWAY_EMBEDDING_MODEL"
	EnvGenerationTimeout  = "MODUWAY_GENERATION_TIMEOUT"
	EnvGenerationRetries  = "MODUWAY_GENERATION_RETRIES"
	EnvCompareConcurrency = "MODUWAY_COMPARE_CONCURRENCY"

	// Metrics
	EnvMetricsUsername = "MODUWAY_METRICS_USERNAME"
	EnvMetricsPassword = "MODUWAY_METRICS_PASSWORD"

	// Sentry Feature
	EnvSentryDSN         = "MODUWAY_SENTRY_DSN"
	EnvSentryEnvironment = "MODUWAY_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "MODUWAY_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "MODUWAY_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "MODUWAY_BETTERSTACK_ENDPOINT"
)
