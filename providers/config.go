// Package providers holds configuration and helpers shared by the concrete
// LLM provider adapters (anthropic, openai, openrouter).
package providers

import "time"

// Config is the common configuration consumed by every provider adapter.
type Config struct {
	APIKey  string        `yaml:"api_key" json:"api_key"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}
