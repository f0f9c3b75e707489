package types

// TokenUsage represents token consumption statistics for one chat invocation.
// Counters are monotonically non-decreasing within a call and always equal
// the exact sum of per-iteration provider-reported usage.
type TokenUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

// Add adds another TokenUsage to this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.EstimatedCost += other.EstimatedCost
}
