// Package ai constructs predictive providers from configuration.
package ai

import (
	"fmt"

	"github.com/rankcast/rankcast/internal/ai/anthropic"
	"github.com/rankcast/rankcast/internal/ai/ollama"
	"github.com/rankcast/rankcast/internal/ai/openai"
	"github.com/rankcast/rankcast/internal/config"
	"github.com/rankcast/rankcast/pkg/models"
)

// NewProvider constructs the appropriate forecast provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.ForecastProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, openai, anthropic", cfg.Provider)
	}
}
