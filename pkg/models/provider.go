package models

import (
	"context"
	"errors"
)

// Sentinel errors for predictive provider failures.
var (
	ErrProviderUnavailable = errors.New("forecast provider unavailable")
	ErrInferenceTimeout    = errors.New("forecast inference timeout")
	ErrInvalidResponse     = errors.New("forecast provider returned invalid response")
)

// ForecastProvider is the predictive collaborator port. It receives a fully
// assembled prompt plus a completion budget and returns free-form text that
// should, but is not guaranteed to, contain one structured forecast object.
// Never call specific providers directly; always inject this interface.
type ForecastProvider interface {
	// Complete sends a single prompt and returns the raw completion text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
	// Model returns the configured model identifier.
	Model() string
}

// CompletionRequest is the input to a provider completion call.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}
