// Package genai provides the LLM integrations: text embeddings for semantic
// search, and JSON-mode narrative generation (personalized recommendations
// and review summaries) with multi-provider fallback.
//
// Architecture:
// - OpenAI: github.com/openai/openai-go/v3 (primary generation + embeddings)
// - Gemini: google.golang.org/genai (generation fallback)
//
// Fallback strategy:
// 1. Retry: same provider retried with Full Jitter backoff
// 2. Provider chain: primary → fallback provider
// 3. Graceful degradation: callers substitute fixed fallback payloads
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderOpenAI represents OpenAI's API.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini represents Google's Gemini API.
	ProviderGemini Provider = "gemini"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Generation tuning constants.
const (
	// TemperatureCreative is used for personalized recommendations, where
	// some variation across users is desirable.
	TemperatureCreative = 0.6
	// TemperatureFactual is used for review summaries, where consistency
	// matters more than variety.
	TemperatureFactual = 0.3
	// MaxOutputTokens caps generation length for both call kinds.
	MaxOutputTokens = 500
)

// Recommendation payload policy.
const (
	// MinKeyPoints is the minimum acceptable key point count; fewer is a
	// generation failure.
	MinKeyPoints = 2
	// MaxKeyPoints is the maximum key point count; extras are truncated
	// rather than rejected.
	MaxKeyPoints = 5
)

// Review summary policy.
const (
	// MaxProsConsItems bounds each of the pros and cons lists; extras are
	// truncated.
	MaxProsConsItems = 3
	// MaxReviewsToSummarize caps how many review texts go into one prompt.
	MaxReviewsToSummarize = 30
	// MinReviewLength is the minimum content length for a review to count.
	MinReviewLength = 10
	// HighReliabilityMinReviews is the review count at which a summary is
	// considered highly reliable.
	HighReliabilityMinReviews = 5
)

// CourseProfile carries the course fields the prompts reference. The zero
// value of optional fields renders as "N/A".
type CourseProfile struct {
	ID          int64
	Name        string
	Instructor  string
	OrgName     string
	Category    string
	Subcategory string
	Weeks       float64 // 0 when unknown

	// Pre-computed AI quality ratings on the 0-5 scale.
	Summary          string
	TheoryRating     float64
	PracticalRating  float64
	DifficultyRating float64
	DurationRating   float64
}

// Recommendation is the structured personalized-recommendation payload.
type Recommendation struct {
	CourseID             int64    `json:"course_id"`
	CourseName           string   `json:"course_name"`
	RecommendationReason string   `json:"recommendation_reason"`
	KeyPoints            []string `json:"key_points"`
}

// ReviewSummary is the structured review-summary payload.
type ReviewSummary struct {
	Summary string   `json:"summary"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
}

// Generator produces narrative payloads from course context. Implementations
// must return an error rather than a partial payload when the response fails
// validation; callers substitute fallback payloads.
type Generator interface {
	// GenerateRecommendation explains why the course fits the user's goal.
	GenerateRecommendation(ctx context.Context, course CourseProfile, userGoal string) (*Recommendation, error)
	// GenerateReviewSummary condenses learner reviews into summary/pros/cons.
	// totalCount is the full qualifying-review count; reviews is the sample
	// actually sent, capped at MaxReviewsToSummarize.
	GenerateReviewSummary(ctx context.Context, courseName string, reviews []string, totalCount int) (*ReviewSummary, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the generator.
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int
	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// CallTimeout bounds one whole call including retries. Zero disables it.
	CallTimeout time.Duration
}

// Retry configuration defaults.
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
	DefaultCallTimeout       = 30 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
		CallTimeout:  DefaultCallTimeout,
	}
}
