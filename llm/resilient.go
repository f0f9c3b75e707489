package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/llm/retry"
)

// ResilientProvider decorates a Provider with retry behavior. Transient
// failures (rate limits, network errors, overload) are retried with
// exponential backoff; auth and provider-reported request errors surface
// immediately. After exhausting retries the last observed error is returned.
type ResilientProvider struct {
	provider Provider
	retryer  retry.Retryer
	logger   *zap.Logger
}

// NewResilientProvider wraps a provider with the given retry policy.
// A nil policy uses retry.DefaultPolicy.
func NewResilientProvider(provider Provider, policy *retry.Policy, logger *zap.Logger) *ResilientProvider {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
	if policy.Classify == nil {
		policy.Classify = IsRetryable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientProvider{
		provider: provider,
		retryer:  retry.NewBackoffRetryer(policy, logger),
		logger:   logger,
	}
}

// Completion implements Provider.
func (rp *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var resp *ChatResponse
	err := rp.retryer.Do(ctx, func() error {
		var callErr error
		resp, callErr = rp.provider.Completion(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Name implements Provider.
func (rp *ResilientProvider) Name() string { return rp.provider.Name() }

// DefaultModel implements Provider.
func (rp *ResilientProvider) DefaultModel() string { return rp.provider.DefaultModel() }
