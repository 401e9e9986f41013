// Package interview implements the check-in state machine. The engine is
// stateless: the caller passes the full transcript on every step and the
// engine answers with the next question or the final rubric mapping.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/equilibrium/internal/observe"
)

// Request is what the engine asks of the oracle on one step.
type Request struct {
	Transcript Transcript
	MoodTag    string
	Phase      Phase
}

// Oracle produces the next question or the final mapping for a transcript.
// Implementations should classify failures with ErrOracleUnavailable or
// ErrOracleContractViolation; unclassified errors are treated as
// unavailability.
type Oracle interface {
	Next(ctx context.Context, req Request) (Result, error)
}

// Engine drives one oracle call per step and enforces the interview
// invariants on both its input and the oracle's reply.
type Engine struct {
	oracle  Oracle
	logger  *slog.Logger
	metrics *observe.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for contract violations.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics enables step and oracle metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine backed by oracle.
func NewEngine(oracle Oracle, opts ...Option) *Engine {
	e := &Engine{oracle: oracle, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step advances the interview by one turn. It never retries the oracle;
// a step that failed with ErrOracleUnavailable can be repeated with the
// same transcript since Step has no side effects.
func (e *Engine) Step(ctx context.Context, transcript Transcript, moodTag string) (Result, error) {
	if err := transcript.Validate(); err != nil {
		e.metrics.RecordStep(ctx, observe.OutcomeInvalid, "")
		return nil, err
	}

	req := Request{
		Transcript: transcript,
		MoodTag:    strings.TrimSpace(moodTag),
		Phase:      PhaseFor(len(transcript)),
	}

	start := time.Now()
	res, err := e.oracle.Next(ctx, req)
	e.metrics.RecordOracleCall(ctx, string(req.Phase), time.Since(start), err)
	if err != nil {
		return nil, e.fail(ctx, req, classify(err))
	}

	res, err = accept(req, res)
	if err != nil {
		return nil, e.fail(ctx, req, err)
	}

	switch res.(type) {
	case Completed:
		e.metrics.RecordStep(ctx, observe.OutcomeCompleted, string(req.Phase))
	default:
		e.metrics.RecordStep(ctx, observe.OutcomeInProgress, string(req.Phase))
	}
	return res, nil
}

func (e *Engine) fail(ctx context.Context, req Request, err error) error {
	if errors.Is(err, ErrOracleContractViolation) {
		e.logger.Warn("oracle contract violation",
			"phase", req.Phase,
			"turns", len(req.Transcript),
			"error", err)
		e.metrics.RecordStep(ctx, observe.OutcomeViolation, string(req.Phase))
		return err
	}
	e.logger.Debug("oracle unavailable", "phase", req.Phase, "error", err)
	e.metrics.RecordStep(ctx, observe.OutcomeUnavailable, string(req.Phase))
	return err
}

// classify maps oracle errors onto the two oracle error kinds.
func classify(err error) error {
	if errors.Is(err, ErrOracleContractViolation) || errors.Is(err, ErrOracleUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
}

// accept validates an oracle reply against the request it answers.
func accept(req Request, res Result) (Result, error) {
	turns := len(req.Transcript)

	switch r := res.(type) {
	case InProgress:
		if !req.Phase.AllowsQuestion() {
			return nil, Violation("continued after %d turns when the final mapping was required", turns)
		}
		q := normalizeQuestion(r.NextQuestion)
		if q == "" {
			return nil, Violation("empty next question")
		}
		if req.Transcript.Asked(q) {
			return nil, Violation("repeated question %q", q)
		}
		return InProgress{NextQuestion: q}, nil

	case Completed:
		if !req.Phase.AllowsCompletion() {
			return nil, Violation("completed after %d turns, at least %d are required", turns, MinTurns)
		}
		if err := r.Answers.Validate(); err != nil {
			return nil, Violation("mapped answers: %v", err)
		}
		return r, nil

	case nil:
		return nil, Violation("no result")

	default:
		return nil, Violation("unexpected result type %T", res)
	}
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req Request) (Result, error)

// Next calls f(ctx, req).
func (f OracleFunc) Next(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
