package types

// ProviderKind identifies a supported LLM backend family.
type ProviderKind string

const (
	ProviderAnthropic  ProviderKind = "anthropic"
	ProviderOpenAI     ProviderKind = "openai"
	ProviderOpenRouter ProviderKind = "openrouter"
)

// Valid reports whether the kind names a supported backend.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter:
		return true
	}
	return false
}

// DefaultMaxIterations bounds the reasoning loop when the config leaves
// MaxIterations unset.
const DefaultMaxIterations = 10

// AgentConfig configures one agent instance. It is immutable for the
// lifetime of a chat invocation.
type AgentConfig struct {
	Provider      ProviderKind    `json:"provider" yaml:"provider"`
	Model         string          `json:"model,omitempty" yaml:"model"`
	Workspace     string          `json:"workspace" yaml:"workspace"`
	MaxIterations int             `json:"max_iterations,omitempty" yaml:"max_iterations"`
	Tools         map[string]bool `json:"tools,omitempty" yaml:"tools"`
}

// ToolEnabled reports whether the named tool is enabled. Tools default to
// enabled when no explicit flag is present.
func (c AgentConfig) ToolEnabled(name string) bool {
	if c.Tools == nil {
		return true
	}
	enabled, ok := c.Tools[name]
	if !ok {
		return true
	}
	return enabled
}

// EffectiveMaxIterations returns MaxIterations or the default when unset.
func (c AgentConfig) EffectiveMaxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return DefaultMaxIterations
}
