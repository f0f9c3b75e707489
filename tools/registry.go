package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/types"
)

// Registry holds the tools available to one agent and dispatches calls by
// name. Arguments are validated against the tool's declared schema before
// dispatch; on mismatch the handler never runs.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)

	r.logger.Info("tool registered", zap.String("name", name))
	return nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schemas returns the LLM-facing schemas of all registered tools in
// registration order.
func (r *Registry) Schemas() []types.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]types.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		schemas = append(schemas, types.ToolSchema{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema().MustJSON(),
		})
	}
	return schemas
}

// Summaries returns markdown summaries of all tools for the system prompt,
// sorted for prompt determinism.
func (r *Registry) Summaries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		tool := r.tools[name]
		out = append(out, fmt.Sprintf("### %s\n%s\n", tool.Name(), tool.Description()))
	}
	return out
}

// Execute runs one tool call and always produces a ToolResult, success or
// failure. Validation and sandbox failures become result error text; they
// never propagate as Go errors.
func (r *Registry) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	start := time.Now()
	result := types.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Arguments:  call.Arguments,
	}

	tool, err := r.Get(call.Name)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		r.logger.Warn("tool not found", zap.String("name", call.Name))
		return result
	}

	if err := tool.Schema().Validate(call.Arguments); err != nil {
		result.Error = fmt.Sprintf("%v: %v", ErrValidation, err)
		result.Duration = time.Since(start)
		r.logger.Warn("tool argument validation failed",
			zap.String("name", call.Name),
			zap.Error(err),
		)
		return result
	}

	text, err := tool.Execute(ctx, call.Arguments)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		r.logger.Warn("tool execution failed",
			zap.String("name", call.Name),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
		return result
	}

	result.Result = text
	r.logger.Debug("tool executed",
		zap.String("name", call.Name),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// ExecuteByName runs a tool directly from raw arguments. Used by tests and
// tooling, and by callers outside the loop.
func (r *Registry) ExecuteByName(ctx context.Context, name string, args json.RawMessage) (string, error) {
	result := r.Execute(ctx, types.ToolCall{Name: name, Arguments: args})
	if result.IsError() {
		return "", fmt.Errorf("%s", result.Error)
	}
	return result.Result, nil
}
