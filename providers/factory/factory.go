// Package factory constructs provider adapters from an AgentConfig's
// provider kind. It lives apart from package providers so the concrete
// adapters can depend on the shared config without an import cycle.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/llm"
	"github.com/openclaw/picoclaw/providers"
	"github.com/openclaw/picoclaw/providers/anthropic"
	"github.com/openclaw/picoclaw/providers/openai"
	"github.com/openclaw/picoclaw/providers/openrouter"
	"github.com/openclaw/picoclaw/types"
)

// New returns the provider adapter for the given backend kind.
func New(kind types.ProviderKind, cfg providers.Config, logger *zap.Logger) (llm.Provider, error) {
	switch kind {
	case types.ProviderAnthropic:
		return anthropic.New(cfg, logger), nil
	case types.ProviderOpenAI:
		return openai.New(cfg, logger), nil
	case types.ProviderOpenRouter:
		return openrouter.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %q", kind)
	}
}
