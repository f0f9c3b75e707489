// Package mocks provides mock implementations for tests: a scriptable LLM
// provider with call recording and error injection.
package mocks

import (
	"context"
	"sync"

	"github.com/openclaw/picoclaw/llm"
	"github.com/openclaw/picoclaw/types"
)

// Step is one scripted provider turn: either a response or an error.
type Step struct {
	Content   string
	ToolCalls []types.ToolCall
	Usage     types.TokenUsage
	Err       error
}

// MockProvider replays a fixed script of steps, one per Completion call,
// recording every request it receives. When the script runs out, the last
// step repeats.
type MockProvider struct {
	mu       sync.Mutex
	name     string
	model    string
	steps    []Step
	requests []*llm.ChatRequest
	calls    int
}

// NewMockProvider creates an empty-scripted mock.
func NewMockProvider() *MockProvider {
	return &MockProvider{name: "mock", model: "mock-model"}
}

// WithName overrides the provider name.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.name = name
	return m
}

// Reply scripts a plain-text response step.
func (m *MockProvider) Reply(content string, usage types.TokenUsage) *MockProvider {
	m.steps = append(m.steps, Step{Content: content, Usage: usage})
	return m
}

// ReplyToolCalls scripts a step requesting tool execution.
func (m *MockProvider) ReplyToolCalls(content string, usage types.TokenUsage, calls ...types.ToolCall) *MockProvider {
	m.steps = append(m.steps, Step{Content: content, Usage: usage, ToolCalls: calls})
	return m
}

// Fail scripts an error step.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.steps = append(m.steps, Step{Err: err})
	return m
}

// Completion implements llm.Provider.
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	idx := m.calls
	m.calls++
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	}
	if idx < 0 {
		return &llm.ChatResponse{Provider: m.name, Model: m.model}, nil
	}

	step := m.steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return &llm.ChatResponse{
		Provider:  m.name,
		Model:     m.model,
		Content:   step.Content,
		ToolCalls: step.ToolCalls,
		Usage:     step.Usage,
	}, nil
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string { return m.name }

// DefaultModel implements llm.Provider.
func (m *MockProvider) DefaultModel() string { return m.model }

// Calls returns how many Completion calls were made.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the recorded requests in call order.
func (m *MockProvider) Requests() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*llm.ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
