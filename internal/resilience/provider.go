package resilience

import (
	"context"
	"errors"

	"github.com/abhisek/equilibrium/internal/llm"
)

// GuardedProvider rejects requests while its breaker is open.
type GuardedProvider struct {
	inner   llm.Provider
	breaker *CircuitBreaker
}

// Guard wraps p with cb. A rejected call returns *llm.ErrProviderUnavailable
// wrapping ErrCircuitOpen, so callers classify it like any other outage.
func Guard(p llm.Provider, cb *CircuitBreaker) *GuardedProvider {
	return &GuardedProvider{inner: p, breaker: cb}
}

func (g *GuardedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	var resp *llm.Response
	err := g.breaker.Execute(func() error {
		var err error
		resp, err = g.inner.Generate(ctx, req)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, &llm.ErrProviderUnavailable{Err: err}
	}
	return resp, err
}

func (g *GuardedProvider) ModelID() string { return g.inner.ModelID() }

// Breaker returns the breaker guarding the provider, for health reporting.
func (g *GuardedProvider) Breaker() *CircuitBreaker { return g.breaker }
