// OpenAI implementation of the Generator interface. Uses JSON response mode
// for schema-shaped output.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/moduway/moduway-go/internal/errors"
)

// DefaultOpenAIGenerationModel balances quality against per-call cost for
// short structured payloads.
const DefaultOpenAIGenerationModel = "gpt-4o-mini"

type openaiGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAI-backed generator. baseURL overrides
// the API endpoint when routing through an OpenAI-compatible gateway.
// Returns nil if apiKey is empty (generation disabled).
func NewOpenAIGenerator(apiKey, model, baseURL string) Generator {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultOpenAIGenerationModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiGenerator{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (g *openaiGenerator) GenerateRecommendation(ctx context.Context, course CourseProfile, userGoal string) (*Recommendation, error) {
	raw, err := g.complete(ctx,
		RecommendationSystemPrompt(course.ID),
		RecommendationUserPrompt(course, userGoal),
		TemperatureCreative)
	if err != nil {
		return nil, err
	}
	return ParseRecommendation(raw, course.ID, course.Name)
}

func (g *openaiGenerator) GenerateReviewSummary(ctx context.Context, courseName string, reviews []string, totalCount int) (*ReviewSummary, error) {
	raw, err := g.complete(ctx,
		ReviewSummarySystemPrompt(),
		ReviewSummaryUserPrompt(courseName, reviews, totalCount),
		TemperatureFactual)
	if err != nil {
		return nil, err
	}
	return ParseReviewSummary(raw)
}

// complete performs a JSON-mode chat completion and returns the raw content.
func (g *openaiGenerator) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(MaxOutputTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "generation API call failed",
			"provider", ProviderOpenAI,
			"model", g.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", apperrors.NewGenerationError(string(ProviderOpenAI), 0,
			fmt.Errorf("chat completion failed: %w", err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.NewGenerationError(string(ProviderOpenAI), 0,
			fmt.Errorf("empty completion: %w", apperrors.ErrGenerationFailed))
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "generation completed",
			"provider", ProviderOpenAI,
			"model", g.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *openaiGenerator) Provider() Provider {
	return ProviderOpenAI
}

// Close releases resources. The openai-go client needs no cleanup.
func (g *openaiGenerator) Close() error {
	return nil
}
