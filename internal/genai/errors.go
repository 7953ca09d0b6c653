// Error classification for retry/fallback decisions.
package genai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/moduway/moduway-go/internal/errors"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to the other provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ClassifyError determines the appropriate action based on the error:
//   - Transient errors (429, 5xx, network, timeout) → Retry
//   - Quota exhaustion → Fallback to the other provider
//   - Permanent errors (4xx, malformed responses) → Fail immediately
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}

	// Schema violations are a model-quality problem, not a transport one;
	// the other provider may do better.
	if errors.Is(err, apperrors.ErrGenerationFailed) {
		return ActionFallback
	}

	var genErr *apperrors.GenerationError
	if errors.As(err, &genErr) && genErr.StatusCode > 0 {
		return classifyStatusCode(genErr.StatusCode)
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "quota", "daily limit", "monthly limit", "billing") {
		return ActionFallback
	}
	if containsAny(errStr, "429", "rate limit", "too many requests", "resource_exhausted") {
		return ActionRetry
	}
	if containsAny(errStr, "500", "502", "503", "504", "unavailable",
		"internal server error", "bad gateway", "gateway timeout", "overloaded") {
		return ActionRetry
	}
	if containsAny(errStr, "408", "timeout", "deadline", "connection") {
		return ActionRetry
	}
	if containsAny(errStr, "400", "invalid", "bad request", "malformed") {
		return ActionFail
	}
	if containsAny(errStr, "401", "unauthorized", "unauthenticated", "invalid api key") {
		return ActionFail
	}
	if containsAny(errStr, "403", "forbidden", "permission denied") {
		return ActionFail
	}
	if containsAny(errStr, "404", "not found") {
		return ActionFail
	}

	// Unknown errors: retry once rather than failing outright.
	return ActionRetry
}

func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ActionRetry
	case statusCode == http.StatusRequestTimeout:
		return ActionRetry
	case statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode == http.StatusPaymentRequired:
		return ActionFallback
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// IsPermanent returns true if the error is permanent and should not be retried.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
