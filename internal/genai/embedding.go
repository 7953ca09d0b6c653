// Embedding generation via the OpenAI embeddings API, used for semantic
// search over the course catalog.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/moduway/moduway-go/internal/errors"
	"github.com/moduway/moduway-go/internal/metrics"
)

const (
	// DefaultEmbeddingModel produces 1536-dimension vectors, a reasonable
	// cost/quality point for catalog-sized corpora.
	DefaultEmbeddingModel = "text-embedding-3-small"

	embedMaxRetries   = 3
	embedInitialDelay = 1 * time.Second
	embedMaxDelay     = 8 * time.Second
)

// EmbeddingClient generates text embeddings.
type EmbeddingClient struct {
	client  openai.Client
	model   string
	apiKey  string
	metrics *metrics.Metrics
}

// NewEmbeddingClient creates an OpenAI embedding client. baseURL overrides
// the API endpoint when routing through an OpenAI-compatible gateway.
// m may be nil.
func NewEmbeddingClient(apiKey, model, baseURL string, m *metrics.Metrics) *EmbeddingClient {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &EmbeddingClient{
		client:  openai.NewClient(opts...),
		model:   model,
		apiKey:  apiKey,
		metrics: m,
	}
}

// IsConfigured returns true if the API key is set.
func (c *EmbeddingClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Embed generates an embedding vector for the given text. Empty or
// whitespace-only text is an error; transient API failures are retried
// with Full Jitter backoff.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("embedding API key not configured: %w", apperrors.ErrEmbeddingUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty or whitespace-only text cannot be embedded: %w", apperrors.ErrEmbeddingUnavailable)
	}

	var result []float32
	cfg := RetryConfig{MaxAttempts: embedMaxRetries, InitialDelay: embedInitialDelay, MaxDelay: embedMaxDelay}
	err := WithRetry(ctx, cfg, func(attempt int, err error) {
		slog.DebugContext(ctx, "retrying embedding request",
			"attempt", attempt,
			"error", err)
	}, func() error {
		resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: c.model,
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
		})
		if err != nil {
			return fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("empty embedding returned: %w", apperrors.ErrEmbeddingUnavailable)
		}

		vec := make([]float32, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float32(v)
		}
		result = vec
		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEmbeddingUnavailable, err)
	}
	if c.metrics != nil {
		c.metrics.EmbeddingRequestsTotal.WithLabelValues("success").Inc()
	}
	return result, nil
}

// NewEmbeddingFunc adapts the client to chromem-go's EmbeddingFunc.
func (c *EmbeddingClient) NewEmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return c.Embed(ctx, text)
	}
}
