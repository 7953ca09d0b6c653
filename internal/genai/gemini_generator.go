// Gemini implementation of the Generator interface, used as the fallback
// provider behind OpenAI.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	apperrors "github.com/moduway/moduway-go/internal/errors"
)

// DefaultGeminiGenerationModel is the fallback generation model.
const DefaultGeminiGenerationModel = "gemini-2.0-flash"

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
// Returns nil if apiKey is empty (fallback disabled).
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: fallback disabled when no API key
	}
	if model == "" {
		model = DefaultGeminiGenerationModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) GenerateRecommendation(ctx context.Context, course CourseProfile, userGoal string) (*Recommendation, error) {
	raw, err := g.generate(ctx,
		RecommendationSystemPrompt(course.ID),
		RecommendationUserPrompt(course, userGoal),
		TemperatureCreative)
	if err != nil {
		return nil, err
	}
	return ParseRecommendation(raw, course.ID, course.Name)
}

func (g *geminiGenerator) GenerateReviewSummary(ctx context.Context, courseName string, reviews []string, totalCount int) (*ReviewSummary, error) {
	raw, err := g.generate(ctx,
		ReviewSummarySystemPrompt(),
		ReviewSummaryUserPrompt(courseName, reviews, totalCount),
		TemperatureFactual)
	if err != nil {
		return nil, err
	}
	return ParseReviewSummary(raw)
}

func (g *geminiGenerator) generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(temperature)),
		MaxOutputTokens:  MaxOutputTokens,
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "generation API call failed",
			"provider", ProviderGemini,
			"model", g.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", apperrors.NewGenerationError(string(ProviderGemini), 0,
			fmt.Errorf("generate content failed: %w", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.NewGenerationError(string(ProviderGemini), 0,
			fmt.Errorf("empty response: %w", apperrors.ErrGenerationFailed))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	raw := strings.TrimSpace(sb.String())
	if raw == "" {
		return "", apperrors.NewGenerationError(string(ProviderGemini), 0,
			fmt.Errorf("empty response text: %w", apperrors.ErrGenerationFailed))
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "generation completed",
			"provider", ProviderGemini,
			"model", g.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return raw, nil
}

func (g *geminiGenerator) Provider() Provider {
	return ProviderGemini
}

// Close releases resources. The genai client needs no cleanup.
func (g *geminiGenerator) Close() error {
	return nil
}
