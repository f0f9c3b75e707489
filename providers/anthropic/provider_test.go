package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/llm"
	"github.com/openclaw/picoclaw/providers"
	"github.com/openclaw/picoclaw/types"
)

func TestProvider_Name(t *testing.T) {
	p := New(providers.Config{}, zap.NewNop())
	assert.Equal(t, "anthropic", p.Name())
	assert.Equal(t, defaultModel, p.DefaultModel())
}

func TestConvertMessages(t *testing.T) {
	msgs := []types.Message{
		{Role: types.RoleSystem, Content: "system prompt"},
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, Content: "calling", ToolCalls: []types.ToolCall{
			{ID: "tc1", Name: "shell", Arguments: json.RawMessage(`{"command":"ls"}`)},
		}},
		{Role: types.RoleTool, Content: "file.txt", ToolCallID: "tc1"},
	}

	system, converted := convertMessages(msgs)
	require.Equal(t, "system prompt", system)
	require.Len(t, converted, 3)

	// Assistant message carries a text block plus the tool_use block.
	assert.Equal(t, "assistant", converted[1].Role)
	require.Len(t, converted[1].Content, 2)
	assert.Equal(t, "tool_use", converted[1].Content[1].Type)
	assert.Equal(t, "shell", converted[1].Content[1].Name)

	// Tool results are wrapped as user messages with tool_result blocks.
	assert.Equal(t, "user", converted[2].Role)
	require.Len(t, converted[2].Content, 1)
	assert.Equal(t, "tool_result", converted[2].Content[0].Type)
	assert.Equal(t, "tc1", converted[2].Content[0].ToolUseID)
}

func TestProvider_Completion(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := anthropicResponse{
			ID:    "msg_1",
			Model: "claude-3-5-sonnet-20241022",
			Content: []anthropicContent{
				{Type: "text", Text: "let me check"},
				{Type: "tool_use", ID: "tc1", Name: "shell", Input: json.RawMessage(`{"command":"echo hi"}`)},
			},
			StopReason: "tool_use",
			Usage:      &anthropicUsage{InputTokens: 10, OutputTokens: 5},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := New(providers.Config{APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "you are a test"},
			{Role: types.RoleUser, Content: "run echo"},
		},
		Tools: []types.ToolSchema{{Name: "shell", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "you are a test", gotReq.System)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "shell", gotReq.Tools[0].Name)

	assert.Equal(t, "let me check", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "shell", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"command":"echo hi"}`, string(resp.ToolCalls[0].Arguments))
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestProvider_ErrorMapping(t *testing.T) {
	cases := []struct {
		status    int
		code      llm.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, llm.ErrUnauthorized, false},
		{http.StatusForbidden, llm.ErrForbidden, false},
		{http.StatusTooManyRequests, llm.ErrRateLimited, true},
		{http.StatusBadRequest, llm.ErrInvalidRequest, false},
		{http.StatusBadGateway, llm.ErrUpstreamError, true},
		{529, llm.ErrModelOverloaded, true},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"test","message":"boom"}}`))
		}))

		p := New(providers.Config{APIKey: "k", BaseURL: srv.URL}, zap.NewNop())
		_, err := p.Completion(context.Background(), &llm.ChatRequest{
			Messages: []types.Message{{Role: types.RoleUser, Content: "x"}},
		})
		srv.Close()

		require.Error(t, err, "status %d", tc.status)
		var pe *llm.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, tc.code, pe.Code, "status %d", tc.status)
		assert.Equal(t, tc.retryable, pe.Retryable, "status %d", tc.status)
	}
}

func TestProvider_AuthErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	p := New(providers.Config{APIKey: "bad", BaseURL: srv.URL}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "x"}},
	})
	require.Error(t, err)
	assert.True(t, llm.IsAuthError(err))
	assert.False(t, llm.IsRetryable(err))
}
