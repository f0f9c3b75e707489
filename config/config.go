// Package config loads the application configuration from defaults, an
// optional YAML file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/picoclaw/types"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Agent     AgentConfig     `yaml:"agent" env:"AGENT"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Search    SearchConfig    `yaml:"search" env:"SEARCH"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Scheduler SchedulerConfig `yaml:"scheduler" env:"SCHEDULER"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// AgentConfig configures the default agent.
type AgentConfig struct {
	Provider      string          `yaml:"provider" env:"PROVIDER"`
	Model         string          `yaml:"model" env:"MODEL"`
	WorkspaceRoot string          `yaml:"workspace_root" env:"WORKSPACE_ROOT"`
	MaxIterations int             `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	Tools         map[string]bool `yaml:"tools" env:"-"`
}

// LLMConfig configures provider access. Credential uses the
// "<provider>:<secret>" form; a bare secret means anthropic.
type LLMConfig struct {
	Credential string        `yaml:"credential" env:"CREDENTIAL"`
	BaseURL    string        `yaml:"base_url" env:"BASE_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"`
}

// SearchConfig configures the web_search tool.
type SearchConfig struct {
	BraveAPIKey string `yaml:"brave_api_key" env:"BRAVE_API_KEY"`
}

// DatabaseConfig configures the sqlite conversation store.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// SchedulerConfig configures the background job scheduler.
type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig returns the configuration used when nothing is provided.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8790,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Agent: AgentConfig{
			Provider:      string(types.ProviderAnthropic),
			WorkspaceRoot: "~/.picoclaw/workspace",
			MaxIterations: types.DefaultMaxIterations,
		},
		LLM: LLMConfig{
			Timeout:    2 * time.Minute,
			MaxRetries: 3,
		},
		Database: DatabaseConfig{
			Path: "~/.picoclaw/picoclaw.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			TickInterval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// AgentConfig converts the configured agent section into the runtime
// AgentConfig consumed by the agent package.
func (c *Config) AgentConfig(workspace string) types.AgentConfig {
	return types.AgentConfig{
		Provider:      types.ProviderKind(c.Agent.Provider),
		Model:         c.Agent.Model,
		Workspace:     workspace,
		MaxIterations: c.Agent.MaxIterations,
		Tools:         c.Agent.Tools,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "invalid server port")
	}
	if c.Agent.MaxIterations <= 0 {
		errs = append(errs, "agent max_iterations must be positive")
	}
	if c.Agent.Provider != "" && !types.ProviderKind(c.Agent.Provider).Valid() {
		errs = append(errs, fmt.Sprintf("unknown provider %q", c.Agent.Provider))
	}
	if c.Agent.WorkspaceRoot == "" {
		errs = append(errs, "agent workspace_root is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
