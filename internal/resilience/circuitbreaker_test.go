package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/equilibrium/internal/llm"
)

var errTest = errors.New("test error")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	cfg.Logger = slog.New(slog.DiscardHandler)
	cb := NewCircuitBreaker(cfg)
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb.now = clk.Now
	return cb, clk
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "test"})
	if cb.maxFailures != 5 || cb.resetTimeout != 30*time.Second || cb.halfOpenMax != 1 {
		t.Errorf("defaults = %d %v %d", cb.maxFailures, cb.resetTimeout, cb.halfOpenMax)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{MaxFailures: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errTest }); !errors.Is(err, errTest) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker: err = %v, called = %v", err, called)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(Config{MaxFailures: 2})
	_ = cb.Execute(func() error { return errTest })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errTest })
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenCycle(t *testing.T) {
	cb, clk := newTestBreaker(Config{MaxFailures: 1, ResetTimeout: time.Minute, HalfOpenMax: 1})
	_ = cb.Execute(func() error { return errTest })

	clk.Advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}

	// A failed probe re-opens for another full timeout.
	_ = cb.Execute(func() error { return errTest })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", cb.State())
	}
	clk.Advance(30 * time.Second)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	clk.Advance(30 * time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after good probe", cb.State())
	}
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{MaxFailures: 1, IsFailure: ProviderFailure})
	_ = cb.Execute(func() error { return &llm.ErrInvalidResponse{Err: errTest} })
	_ = cb.Execute(func() error { return context.Canceled })
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
	_ = cb.Execute(func() error { return &llm.ErrProviderUnavailable{Err: errTest} })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(Config{MaxFailures: 1, ResetTimeout: time.Hour})
	_ = cb.Execute(func() error { return errTest })
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestProviderFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", &llm.ErrInvalidResponse{Err: errTest}), false},
		{&llm.ErrMaxTokensExceeded{}, false},
		{&llm.ErrRateLimit{Err: errTest}, true},
		{&llm.ErrProviderUnavailable{}, true},
		{context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		if got := ProviderFailure(tt.err); got != tt.want {
			t.Errorf("ProviderFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGuard(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errTest}},
		llm.MockResponse{Content: []byte(`{"ok":true}`)},
	)
	cb, _ := newTestBreaker(Config{MaxFailures: 1, ResetTimeout: time.Hour, IsFailure: ProviderFailure})
	p := Guard(mock, cb)

	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	if _, err := p.Generate(context.Background(), llm.Request{}); err == nil {
		t.Fatal("expected first call to fail")
	}

	_, err := p.Generate(context.Background(), llm.Request{})
	var unavailable *llm.ErrProviderUnavailable
	if !errors.As(err, &unavailable) || !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrProviderUnavailable wrapping ErrCircuitOpen", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("inner calls = %d, want 1", mock.CallCount())
	}
	if p.Breaker() != cb {
		t.Error("Breaker() should expose the guarding breaker")
	}
}
