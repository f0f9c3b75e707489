package llm

import (
	"strings"

	"github.com/openclaw/picoclaw/types"
)

// ModelPrice holds USD prices per million tokens.
type ModelPrice struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// modelPrices maps model-name prefixes to published API prices. Longest
// prefix wins so that dated snapshots resolve to their family.
var modelPrices = map[string]ModelPrice{
	"claude-3-5-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-5-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"claude-3-opus":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4o":            {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4-turbo":       {InputPerMTok: 10.00, OutputPerMTok: 30.00},
}

// defaultPrice is applied when a model has no table entry, so cost totals
// stay a conservative estimate rather than silently zero.
var defaultPrice = ModelPrice{InputPerMTok: 3.00, OutputPerMTok: 15.00}

// PriceFor returns the price entry for a model identifier. OpenRouter-style
// "vendor/model" identifiers match on the model segment.
func PriceFor(model string) ModelPrice {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	var best string
	for prefix := range modelPrices {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return defaultPrice
	}
	return modelPrices[best]
}

// EstimateCost computes the USD cost of the given usage for a model.
func EstimateCost(model string, usage types.TokenUsage) float64 {
	p := PriceFor(model)
	return float64(usage.PromptTokens)*p.InputPerMTok/1e6 +
		float64(usage.CompletionTokens)*p.OutputPerMTok/1e6
}
