// Fallback wrapper combining per-provider retry, cross-provider failover,
// and a circuit breaker that sheds narrative calls while the upstream APIs
// are persistently failing.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/moduway/moduway-go/internal/metrics"
)

// Circuit breaker tuning. Five consecutive failures across both providers
// open the breaker; after the timeout a single probe request is allowed.
const (
	breakerFailureThreshold = 5
	breakerTimeout          = 30 * time.Second
	breakerMaxHalfOpen      = 1
)

// FallbackGenerator wraps a primary and fallback Generator. Calls go through
// a shared circuit breaker; within the breaker, the primary is retried with
// backoff and the fallback provider is tried when the primary's error
// warrants it.
type FallbackGenerator struct {
	primary     Generator
	fallback    Generator
	retryConfig RetryConfig
	breaker     *gobreaker.CircuitBreaker[any]
	metrics     *metrics.Metrics
}

// NewFallbackGenerator creates a fallback-enabled generator. If fallback is
// nil, only retry logic applies. metrics may be nil.
func NewFallbackGenerator(primary, fallback Generator, cfg RetryConfig, m *metrics.Metrics) *FallbackGenerator {
	f := &FallbackGenerator{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
		metrics:     m,
	}
	f.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "narrative-generation",
		MaxRequests: breakerMaxHalfOpen,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("generation circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return f
}

// GenerateRecommendation tries the primary generator with retry, then the
// fallback provider.
func (f *FallbackGenerator) GenerateRecommendation(ctx context.Context, course CourseProfile, userGoal string) (*Recommendation, error) {
	result, err := execute(f, ctx, "recommendation", func(ctx context.Context, g Generator) (any, error) {
		return g.GenerateRecommendation(ctx, course, userGoal)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Recommendation), nil
}

// GenerateReviewSummary tries the primary generator with retry, then the
// fallback provider.
func (f *FallbackGenerator) GenerateReviewSummary(ctx context.Context, courseName string, reviews []string, totalCount int) (*ReviewSummary, error) {
	result, err := execute(f, ctx, "review_summary", func(ctx context.Context, g Generator) (any, error) {
		return g.GenerateReviewSummary(ctx, courseName, reviews, totalCount)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ReviewSummary), nil
}

func execute(f *FallbackGenerator, ctx context.Context, kind string, call func(context.Context, Generator) (any, error)) (any, error) {
	if f == nil || f.primary == nil {
		return nil, errors.New("generator not configured")
	}

	return f.breaker.Execute(func() (any, error) {
		start := time.Now()
		provider := f.primary.Provider()

		result, err := f.callWithRetry(ctx, f.primary, kind, call)
		if err == nil {
			f.recordSuccess(provider, kind, time.Since(start))
			return result, nil
		}

		action := ClassifyError(err)
		slog.WarnContext(ctx, "primary generator failed",
			"provider", provider,
			"kind", kind,
			"error", err,
			"action", action.String(),
			"duration_ms", time.Since(start).Milliseconds())

		if action == ActionFail || f.fallback == nil {
			f.recordFailure(provider, kind)
			return nil, err
		}

		slog.InfoContext(ctx, "falling back to secondary provider",
			"from", provider,
			"to", f.fallback.Provider(),
			"kind", kind)

		fallbackStart := time.Now()
		fallbackProvider := f.fallback.Provider()

		result, err = f.callWithRetry(ctx, f.fallback, kind, call)
		if err == nil {
			f.recordSuccess(fallbackProvider, kind, time.Since(fallbackStart))
			if f.metrics != nil {
				f.metrics.GenerationFallbacksTotal.WithLabelValues(kind).Inc()
			}
			return result, nil
		}

		f.recordFailure(fallbackProvider, kind)
		slog.ErrorContext(ctx, "all generators failed",
			"primary", provider,
			"fallback", fallbackProvider,
			"kind", kind,
			"error", err)
		return nil, fmt.Errorf("all providers failed: %w", err)
	})
}

func (f *FallbackGenerator) callWithRetry(ctx context.Context, g Generator, kind string, call func(context.Context, Generator) (any, error)) (any, error) {
	if f.retryConfig.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.retryConfig.CallTimeout)
		defer cancel()
	}

	var result any
	err := WithRetry(ctx, f.retryConfig, func(attempt int, err error) {
		slog.DebugContext(ctx, "retrying generation",
			"provider", g.Provider(),
			"kind", kind,
			"attempt", attempt,
			"error", err)
	}, func() error {
		r, err := call(ctx, g)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *FallbackGenerator) recordSuccess(provider Provider, kind string, d time.Duration) {
	if f.metrics == nil {
		return
	}
	f.metrics.GenerationRequestsTotal.WithLabelValues(provider.String(), kind, "success").Inc()
	f.metrics.GenerationDuration.WithLabelValues(provider.String()).Observe(d.Seconds())
}

func (f *FallbackGenerator) recordFailure(provider Provider, kind string) {
	if f.metrics == nil {
		return
	}
	f.metrics.GenerationRequestsTotal.WithLabelValues(provider.String(), kind, "error").Inc()
}

// Provider returns the primary provider.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// Close closes both wrapped generators.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var firstErr error
	if f.primary != nil {
		firstErr = f.primary.Close()
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
