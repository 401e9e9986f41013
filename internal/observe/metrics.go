// Package observe holds the observability plumbing: OpenTelemetry metric
// instruments, the SDK provider setup with a Prometheus bridge, and the
// slog logger factory.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics handle without guarding every call site.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/abhisek/equilibrium"

// Step outcomes.
const (
	OutcomeInProgress  = "in_progress"
	OutcomeCompleted   = "completed"
	OutcomeInvalid     = "invalid_transcript"
	OutcomeUnavailable = "oracle_unavailable"
	OutcomeViolation   = "contract_violation"
)

// Metrics holds the application's metric instruments.
type Metrics struct {
	// StepOutcomes counts interview steps by outcome and phase.
	StepOutcomes metric.Int64Counter

	// OracleDuration tracks the latency of the single oracle call per step.
	OracleDuration metric.Float64Histogram

	// LLMRequests counts provider calls by model, purpose and status.
	LLMRequests metric.Int64Counter

	// LLMTokens counts tokens by model and direction (input, output).
	LLMTokens metric.Int64Counter

	// LLMDuration tracks provider call latency.
	LLMDuration metric.Float64Histogram

	// Commits counts session log commits by status.
	Commits metric.Int64Counter

	// Scores records committed burnout scores.
	Scores metric.Int64Histogram

	// HTTPRequestDuration tracks API latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StepOutcomes, err = m.Int64Counter("equilibrium.interview.steps",
		metric.WithDescription("Interview steps by outcome and phase."),
	); err != nil {
		return nil, err
	}
	if met.OracleDuration, err = m.Float64Histogram("equilibrium.oracle.duration",
		metric.WithDescription("Latency of the oracle call made by each step."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("equilibrium.llm.requests",
		metric.WithDescription("LLM provider requests by model, purpose and status."),
	); err != nil {
		return nil, err
	}
	if met.LLMTokens, err = m.Int64Counter("equilibrium.llm.tokens",
		metric.WithDescription("LLM tokens by model and direction."),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("equilibrium.llm.duration",
		metric.WithDescription("Latency of LLM provider requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Commits, err = m.Int64Counter("equilibrium.checkin.commits",
		metric.WithDescription("Session log commits by status."),
	); err != nil {
		return nil, err
	}
	if met.Scores, err = m.Int64Histogram("equilibrium.checkin.score",
		metric.WithDescription("Burnout scores of committed check-ins."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("equilibrium.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a process-wide Metrics built on the global meter
// provider. Call it after InitProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordStep counts one interview step.
func (m *Metrics) RecordStep(ctx context.Context, outcome, phase string) {
	if m == nil {
		return
	}
	m.StepOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("phase", phase),
	))
}

// RecordOracleCall records the latency of one oracle call.
func (m *Metrics) RecordOracleCall(ctx context.Context, phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.OracleDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("status", status(err)),
	))
}

// RecordLLMCall records one provider request.
func (m *Metrics) RecordLLMCall(ctx context.Context, model, purpose string, d time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil {
		return
	}
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("purpose", purpose),
		attribute.String("status", status(err)),
	))
	m.LLMDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("model", model)))
	if inputTokens > 0 {
		m.LLMTokens.Add(ctx, int64(inputTokens), metric.WithAttributes(
			attribute.String("model", model), attribute.String("direction", "input")))
	}
	if outputTokens > 0 {
		m.LLMTokens.Add(ctx, int64(outputTokens), metric.WithAttributes(
			attribute.String("model", model), attribute.String("direction", "output")))
	}
}

// RecordCommit counts a commit and, when it succeeded, its score.
func (m *Metrics) RecordCommit(ctx context.Context, score int, err error) {
	if m == nil {
		return
	}
	m.Commits.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status(err))))
	if err == nil {
		m.Scores.Record(ctx, int64(score))
	}
}

// RecordHTTP records one served HTTP request.
func (m *Metrics) RecordHTTP(ctx context.Context, method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", code),
	))
}
