// Package llm defines the unified provider contract for language-model
// backends. One implementation exists per backend family (see the providers
// tree); all of them normalize their native response shape into ChatResponse
// so the agent loop never sees provider-specific wire formats.
package llm

import (
	"context"
	"errors"

	"github.com/openclaw/picoclaw/types"
)

// Unified LLM error codes, aligned with HTTP status, retryability and the
// loop's abort policy.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"
	ErrModelOverloaded     ErrorCode = "LLM_MODEL_OVERLOADED"
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
)

// Error is the structured error reported by provider adapters.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// IsRetryable reports whether err is a transient provider failure
// (rate limit, network, overload) worth another attempt.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsAuthError reports whether err is a credential failure. Auth errors are
// never retried and abort the agent loop immediately.
func IsAuthError(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrUnauthorized || pe.Code == ErrForbidden
	}
	return false
}

// ChatRequest is the normalized request consumed by every provider adapter.
type ChatRequest struct {
	Model       string             `json:"model"`
	Messages    []types.Message    `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Tools       []types.ToolSchema `json:"tools,omitempty"`
}

// ChatResponse is the normalized response shape: text plus optional tool
// calls plus usage. Provider adapters must fill Usage from the backend's own
// accounting, never from local estimation.
type ChatResponse struct {
	ID           string           `json:"id,omitempty"`
	Provider     string           `json:"provider,omitempty"`
	Model        string           `json:"model"`
	Content      string           `json:"content,omitempty"`
	ToolCalls    []types.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string           `json:"finish_reason,omitempty"`
	Usage        types.TokenUsage `json:"usage"`
}

// HasToolCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Provider is the unified adapter interface. Adding a backend means
// implementing this interface; the agent loop needs no changes.
type Provider interface {
	// Completion sends a synchronous chat request and returns the full
	// normalized response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider's unique identifier.
	Name() string

	// DefaultModel returns the model used when the request leaves it unset.
	DefaultModel() string
}
