package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/llm"
	"github.com/openclaw/picoclaw/llm/retry"
	"github.com/openclaw/picoclaw/llm/tokenizer"
	"github.com/openclaw/picoclaw/providers"
	"github.com/openclaw/picoclaw/providers/factory"
	"github.com/openclaw/picoclaw/tools"
	"github.com/openclaw/picoclaw/types"
)

// State identifies where one chat invocation is in its lifecycle.
type State string

const (
	StateAwaitingResponse State = "AWAITING_RESPONSE"
	StateExecutingTools   State = "EXECUTING_TOOLS"
	StateDone             State = "DONE"
	StateAborted          State = "ABORTED"
)

// ChatResult is the outcome of one chat invocation.
type ChatResult struct {
	// Content is the model's final (or latest partial) text answer.
	Content string `json:"content"`
	// Usage is the exact sum of per-call provider usage plus estimated cost.
	Usage types.TokenUsage `json:"usage"`
	// ToolResults logs every tool execution in order, success or failure.
	ToolResults []types.ToolResult `json:"tool_results,omitempty"`
	// Iterations is how many provider round trips the loop made.
	Iterations int `json:"iterations"`
	// Aborted is true when the iteration budget ran out before the model
	// produced a plain-text answer.
	Aborted bool `json:"aborted"`
	// Messages is the full message transcript including the system prompt.
	Messages []types.Message `json:"messages,omitempty"`
}

// Agent drives the reasoning loop for one configuration: a provider, a
// sandboxed tool registry, and a workspace.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	ws       *tools.Workspace
	builder  *ContextBuilder
	counter  tokenizer.Tokenizer
	model    string
	maxIter  int
	logger   *zap.Logger
}

// Options tunes agent construction beyond AgentConfig.
type Options struct {
	// RetryPolicy overrides the default provider retry policy.
	RetryPolicy *retry.Policy
	// BraveAPIKey enables live web search when set.
	BraveAPIKey string
	// HTTPTimeout overrides the provider client timeout.
	HTTPTimeout time.Duration
}

// New builds an agent from its config and a "<provider>:<secret>" credential
// token. The credential's provider must match cfg.Provider when cfg names
// one; a bare secret defaults to anthropic.
func New(cfg types.AgentConfig, credentialToken string, opts Options, logger *zap.Logger) (*Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cred, err := llm.ParseCredential(credentialToken)
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	kind := cfg.Provider
	if kind == "" {
		kind = cred.Provider
	}
	if kind != cred.Provider {
		return nil, fmt.Errorf("credential is for %s, config wants %s", cred.Provider, kind)
	}

	ws, err := tools.NewWorkspace(cfg.Workspace)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterBuiltins(registry, ws, cfg, tools.BuiltinOptions{
		BraveAPIKey: opts.BraveAPIKey,
	}, logger); err != nil {
		return nil, err
	}

	providerCfg := providers.Config{
		APIKey:  cred.Secret,
		Model:   cfg.Model,
		Timeout: opts.HTTPTimeout,
	}
	base, err := factory.New(kind, providerCfg, logger)
	if err != nil {
		return nil, err
	}
	provider := llm.NewResilientProvider(base, opts.RetryPolicy, logger)

	model := cfg.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	return &Agent{
		provider: provider,
		registry: registry,
		ws:       ws,
		builder:  NewContextBuilder(ws, registry),
		counter:  tokenizer.New(model),
		model:    model,
		maxIter:  cfg.EffectiveMaxIterations(),
		logger:   logger,
	}, nil
}

// NewWithProvider builds an agent over an already-constructed provider and
// registry. Used by tests and by embedders that manage their own transport.
func NewWithProvider(provider llm.Provider, registry *tools.Registry, ws *tools.Workspace, maxIterations int, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxIterations <= 0 {
		maxIterations = types.DefaultMaxIterations
	}
	model := provider.DefaultModel()
	return &Agent{
		provider: provider,
		registry: registry,
		ws:       ws,
		builder:  NewContextBuilder(ws, registry),
		counter:  tokenizer.New(model),
		model:    model,
		maxIter:  maxIterations,
		logger:   logger,
	}
}

// Workspace returns the agent's resolved workspace.
func (a *Agent) Workspace() *tools.Workspace { return a.ws }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tools.Registry { return a.registry }

// Model returns the model the agent sends requests for.
func (a *Agent) Model() string { return a.model }

// Chat runs one full conversation turn. The system prompt is rebuilt from
// the workspace state, history is replayed verbatim, then the loop runs
// until the model answers without tool calls or the iteration budget is
// exhausted. Tool failures are fed back to the model and never abort the
// loop; provider auth failures do.
func (a *Agent) Chat(ctx context.Context, userMessage string, history []types.Message) (*ChatResult, error) {
	systemPrompt := a.builder.BuildSystemPrompt()
	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, types.NewSystemMessage(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, types.NewUserMessage(userMessage))

	if a.logger.Core().Enabled(zap.DebugLevel) {
		if n, err := a.counter.CountTokens(systemPrompt); err == nil {
			a.logger.Debug("system prompt built", zap.Int("estimated_tokens", n))
		}
	}

	accountant := NewAccountant(a.model)
	result := &ChatResult{}
	state := StateAwaitingResponse

	for state != StateDone && state != StateAborted {
		if err := ctx.Err(); err != nil {
			result.Usage = accountant.Total()
			result.Messages = messages
			return result, err
		}
		if result.Iterations >= a.maxIter {
			state = StateAborted
			break
		}
		result.Iterations++

		resp, err := a.provider.Completion(ctx, &llm.ChatRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    a.registry.Schemas(),
		})
		if err != nil {
			// Retries are already spent inside the provider; whatever
			// reaches here, auth failure or exhausted backoff, is fatal
			// for this turn.
			result.Usage = accountant.Total()
			result.Messages = messages
			return result, fmt.Errorf("provider call failed on iteration %d: %w", result.Iterations, err)
		}

		accountant.Record(resp.Usage)
		if resp.Content != "" {
			result.Content = resp.Content
		}

		if !resp.HasToolCalls() {
			messages = append(messages, types.NewAssistantMessage(resp.Content))
			state = StateDone
			break
		}

		messages = append(messages, types.NewAssistantMessage(resp.Content).WithToolCalls(resp.ToolCalls))
		state = StateExecutingTools

		for _, call := range resp.ToolCalls {
			toolResult := a.registry.Execute(ctx, call)
			result.ToolResults = append(result.ToolResults, toolResult)
			messages = append(messages, toolResult.ToMessage())

			if toolResult.IsError() {
				a.logger.Warn("tool call failed",
					zap.String("tool", call.Name),
					zap.String("error", toolResult.Error),
				)
			}
		}
		state = StateAwaitingResponse
	}

	result.Aborted = state == StateAborted
	result.Usage = accountant.Total()
	result.Messages = messages

	a.logger.Info("chat turn finished",
		zap.Int("iterations", result.Iterations),
		zap.Bool("aborted", result.Aborted),
		zap.Int("tool_calls", len(result.ToolResults)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	return result, nil
}

// ExecuteTool runs a single registered tool directly, outside the loop.
func (a *Agent) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	return a.registry.ExecuteByName(ctx, name, args)
}

// SystemPrompt returns the system prompt as it would be built right now.
func (a *Agent) SystemPrompt() string {
	return a.builder.BuildSystemPrompt()
}
