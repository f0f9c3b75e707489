package agent

import (
	"sync"

	"github.com/openclaw/picoclaw/llm"
	"github.com/openclaw/picoclaw/types"
)

// Accountant accumulates token usage across provider calls. Totals are the
// exact sum of the per-call usage as reported by the backend; cost is
// estimated from the published per-model prices.
type Accountant struct {
	mu    sync.Mutex
	model string
	total types.TokenUsage
	calls int
}

// NewAccountant creates an accountant pricing against the given model.
func NewAccountant(model string) *Accountant {
	return &Accountant{model: model}
}

// Record adds one provider call's usage to the running totals.
func (a *Accountant) Record(usage types.TokenUsage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total.Add(usage)
	a.calls++
	a.total.EstimatedCost = llm.EstimateCost(a.model, a.total)
}

// Total returns the accumulated usage including the estimated cost.
func (a *Accountant) Total() types.TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Calls returns how many provider calls were recorded.
func (a *Accountant) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
