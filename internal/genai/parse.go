// Response parsing and schema validation shared by the provider
// implementations. A response that parses but violates the schema is a
// generation failure: callers fall back rather than serving a partial
// payload.
package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/moduway/moduway-go/internal/errors"
)

// stripCodeFence removes a Markdown code fence if the model wrapped its
// JSON despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseRecommendation parses and validates a recommendation response.
// key_points below MinKeyPoints fail; above MaxKeyPoints they are truncated.
func ParseRecommendation(raw string, courseID int64, courseName string) (*Recommendation, error) {
	var rec Recommendation
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &rec); err != nil {
		return nil, fmt.Errorf("recommendation response is not valid JSON: %w", apperrors.ErrGenerationFailed)
	}

	if strings.TrimSpace(rec.RecommendationReason) == "" {
		return nil, fmt.Errorf("recommendation_reason missing: %w", apperrors.ErrGenerationFailed)
	}
	if len(rec.KeyPoints) < MinKeyPoints {
		return nil, fmt.Errorf("key_points has %d items, need at least %d: %w",
			len(rec.KeyPoints), MinKeyPoints, apperrors.ErrGenerationFailed)
	}
	if len(rec.KeyPoints) > MaxKeyPoints {
		rec.KeyPoints = rec.KeyPoints[:MaxKeyPoints]
	}

	// Trust our own identifiers over the model's echo.
	rec.CourseID = courseID
	if strings.TrimSpace(rec.CourseName) == "" {
		rec.CourseName = courseName
	}
	return &rec, nil
}

// reviewSummaryEnvelope matches the prompted response shape, with the
// summary object nested under review_summary.
type reviewSummaryEnvelope struct {
	ReviewSummary *ReviewSummary `json:"review_summary"`
	// Some models flatten the envelope; accept top-level fields too.
	Summary string   `json:"summary"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
}

// ParseReviewSummary parses and validates a review summary response.
// Pros/cons lists are truncated to MaxProsConsItems.
func ParseReviewSummary(raw string) (*ReviewSummary, error) {
	var envelope reviewSummaryEnvelope
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &envelope); err != nil {
		return nil, fmt.Errorf("review summary response is not valid JSON: %w", apperrors.ErrGenerationFailed)
	}

	summary := envelope.ReviewSummary
	if summary == nil {
		summary = &ReviewSummary{Summary: envelope.Summary, Pros: envelope.Pros, Cons: envelope.Cons}
	}
	if strings.TrimSpace(summary.Summary) == "" {
		return nil, fmt.Errorf("summary missing: %w", apperrors.ErrGenerationFailed)
	}
	if summary.Pros == nil {
		summary.Pros = []string{}
	}
	if summary.Cons == nil {
		summary.Cons = []string{}
	}
	if len(summary.Pros) > MaxProsConsItems {
		summary.Pros = summary.Pros[:MaxProsConsItems]
	}
	if len(summary.Cons) > MaxProsConsItems {
		summary.Cons = summary.Cons[:MaxProsConsItems]
	}
	return summary, nil
}
