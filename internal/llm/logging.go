package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/equilibrium/internal/observe"
	"github.com/abhisek/equilibrium/internal/store"
)

// EventRecorder persists one audit row per LLM request.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider is a decorator that records every LLM request as an
// audit event, a structured log line and a metric sample.
type LoggingProvider struct {
	inner    Provider
	recorder EventRecorder
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// LoggingOption configures a LoggingProvider.
type LoggingOption func(*LoggingProvider)

// WithRecorder persists request events, including prompt and reply bodies.
func WithRecorder(r EventRecorder) LoggingOption {
	return func(l *LoggingProvider) { l.recorder = r }
}

func WithLogger(logger *slog.Logger) LoggingOption {
	return func(l *LoggingProvider) { l.logger = logger }
}

func WithMetrics(m *observe.Metrics) LoggingOption {
	return func(l *LoggingProvider) { l.metrics = m }
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, opts ...LoggingOption) Provider {
	l := &LoggingProvider{inner: p, logger: slog.Default()}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	ctx, span := observe.StartSpan(ctx, "llm.generate")
	defer span.End()

	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    providerName(l.inner),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		span.RecordError(err)
	}

	l.metrics.RecordLLMCall(ctx, data.Model, purpose, elapsed, data.InputTokens, data.OutputTokens, err)

	attrs := []any{
		"purpose", purpose,
		"model", data.Model,
		"latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
	}
	if err != nil {
		l.logger.WarnContext(ctx, "llm request failed", append(attrs, "err", err)...)
	} else {
		l.logger.DebugContext(ctx, "llm request", attrs...)
	}

	// A failed audit write never fails the request.
	if l.recorder != nil {
		if logErr := l.recorder.AppendLLMRequest(ctx, data); logErr != nil {
			l.logger.WarnContext(ctx, "failed to record llm request event", "err", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func providerName(p Provider) string {
	switch p.(type) {
	case *AnthropicProvider:
		return "anthropic"
	case *OpenRouterProvider:
		return "openrouter"
	case *OpenAIProvider:
		return "openai"
	case *GeminiProvider:
		return "gemini"
	case *MockProvider:
		return "mock"
	default:
		return "unknown"
	}
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
