package providers

import "github.com/openclaw/picoclaw/llm"

// ChooseModel selects the model to use based on priority: request model,
// then configured model, then the provider default.
func ChooseModel(req *llm.ChatRequest, configModel, defaultModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if configModel != "" {
		return configModel
	}
	return defaultModel
}

// ChooseMaxTokens returns the request's max token budget or a safe default.
// Anthropic requires max_tokens to be present on every request.
func ChooseMaxTokens(req *llm.ChatRequest) int {
	if req != nil && req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return 4096
}
