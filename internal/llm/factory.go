package llm

import (
	"context"
	"fmt"
	"time"
)

// NewBaseProvider creates the undecorated provider selected by cfg.
func NewBaseProvider(ctx context.Context, cfg Config) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return base, nil
}

// NewProvider creates a Provider from configuration wrapped as
// caller -> timeout -> retry -> logging -> base.
func NewProvider(ctx context.Context, cfg Config, opts ...LoggingOption) (Provider, error) {
	base, err := NewBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Chain(base, cfg, opts...), nil
}

// Chain wraps base as caller -> timeout -> retry -> logging -> base.
func Chain(base Provider, cfg Config, opts ...LoggingOption) Provider {
	return WithTimeout(WithRetry(WithLogging(base, opts...), cfg.Retry), cfg.Timeout)
}

// SingleShot wraps base as caller -> timeout -> logging -> base. Each
// Generate is exactly one vendor call; schema failures and transient errors
// reach the caller as they are.
func SingleShot(base Provider, cfg Config, opts ...LoggingOption) Provider {
	return WithTimeout(WithLogging(base, opts...), cfg.Timeout)
}

// TimeoutProvider bounds every Generate call, retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each request fails after d. A non-positive d
// returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
