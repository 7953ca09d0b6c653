// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRatingMissing indicates a course has no AI quality rating and
	// therefore cannot participate in comparison scoring.
	ErrRatingMissing = errors.New("ai quality rating missing")

	// ErrEmbeddingUnavailable indicates the embedding service could not
	// produce a vector for the query text.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrGenerationFailed indicates a text-generation call failed or
	// returned a response that violated the expected schema.
	ErrGenerationFailed = errors.New("text generation failed")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// CoursesNotFoundError reports comparison requests naming course ids that
// do not exist. MissingIDs is always non-empty and sorted by the caller.
type CoursesNotFoundError struct {
	MissingIDs []int64
}

func (e *CoursesNotFoundError) Error() string {
	ids := make([]string, len(e.MissingIDs))
	for i, id := range e.MissingIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("courses not found: [%s]", strings.Join(ids, ", "))
}

func (e *CoursesNotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewCoursesNotFoundError creates a not-found error naming the missing ids.
func NewCoursesNotFoundError(missing []int64) *CoursesNotFoundError {
	return &CoursesNotFoundError{MissingIDs: missing}
}

// GenerationError represents a text-generation API failure with context.
type GenerationError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation error (provider=%s, status=%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation error (provider=%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a new generation error.
func NewGenerationError(provider string, statusCode int, err error) *GenerationError {
	return &GenerationError{
		Provider:   provider,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Is re-exports errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New re-exports errors.New for convenience.
func New(text string) error {
	return errors.New(text)
}
