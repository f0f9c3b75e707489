// Package openrouter implements the llm.Provider adapter for OpenRouter,
// which speaks the OpenAI chat completions wire format.
package openrouter

import (
	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/providers"
	"github.com/openclaw/picoclaw/providers/openai"
)

const defaultModel = "anthropic/claude-3.5-sonnet"

// New creates an OpenRouter provider reusing the OpenAI-compatible adapter.
func New(cfg providers.Config, logger *zap.Logger) *openai.Provider {
	return openai.NewCompatible("openrouter", "https://openrouter.ai/api/v1", defaultModel, cfg, logger)
}
