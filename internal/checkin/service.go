// Package checkin is the caller side of the interview engine: it retries
// steps the oracle could not serve, commits completed check-ins and answers
// the read-side questions (logs, trend, recommendations, plan).
package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/equilibrium/internal/coach"
	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/resilience"
	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

var (
	// ErrInvalidInput marks a request the service rejects before doing any
	// work, such as a missing session id or out-of-range answers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCoachUnavailable is returned by the coach-backed operations when
	// the service was built without an LLM provider.
	ErrCoachUnavailable = errors.New("coach not configured")
)

// Step statuses, as reported to clients.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Config tunes the step retry.
type Config struct {
	StepAttempts int
	StepBackoff  time.Duration
}

// DefaultConfig returns the retry defaults.
func DefaultConfig() Config {
	return Config{StepAttempts: 3, StepBackoff: 500 * time.Millisecond}
}

// Deps are the collaborators of a Service. The coach flows are optional.
type Deps struct {
	Engine *interview.Engine
	Writer *sessionlog.Writer
	Reader *sessionlog.Reader

	Recommender *coach.Recommender
	Planner     *coach.Planner
	Explainer   *coach.Explainer

	Logger *slog.Logger
}

// Service implements the check-in use cases.
type Service struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// New creates a Service.
func New(deps Deps, cfg Config) *Service {
	if cfg.StepAttempts < 1 {
		cfg.StepAttempts = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, cfg: cfg, logger: logger, sleep: sleepCtx}
}

// StepInput is one turn submitted by a client.
type StepInput struct {
	SessionID  string
	Transcript interview.Transcript
	MoodTag    string
}

// StepOutput is either the next question or the committed log.
type StepOutput struct {
	Status   string `json:"status"`
	Question string `json:"question,omitempty"`
	LogID    string `json:"logId,omitempty"`
	Score    int    `json:"score"`
}

// MarshalJSON writes score for completed steps only, including a score of 0.
func (o StepOutput) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status   string `json:"status"`
		Question string `json:"question,omitempty"`
		LogID    string `json:"logId,omitempty"`
		Score    *int   `json:"score,omitempty"`
	}
	w := wire{Status: o.Status, Question: o.Question, LogID: o.LogID}
	if o.Status == StatusCompleted {
		w.Score = &o.Score
	}
	return json.Marshal(w)
}

// Step runs one interview step. ErrOracleUnavailable is retried with
// exponential backoff up to StepAttempts times, which is safe because a step
// has no side effects. A completed interview is committed before returning.
func (s *Service) Step(ctx context.Context, in StepInput) (StepOutput, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return StepOutput{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	res, err := s.step(ctx, in.Transcript, in.MoodTag)
	if err != nil {
		return StepOutput{}, err
	}

	switch r := res.(type) {
	case interview.InProgress:
		return StepOutput{Status: StatusInProgress, Question: r.NextQuestion}, nil
	case interview.Completed:
		rec, err := s.deps.Writer.Commit(ctx, sessionID, r.Answers, strings.TrimSpace(in.MoodTag))
		if err != nil {
			return StepOutput{}, err
		}
		return StepOutput{Status: StatusCompleted, LogID: rec.ID, Score: rec.Score}, nil
	default:
		return StepOutput{}, fmt.Errorf("unexpected step result %T", res)
	}
}

func (s *Service) step(ctx context.Context, tr interview.Transcript, mood string) (interview.Result, error) {
	var lastErr error
	for attempt := range s.cfg.StepAttempts {
		res, err := s.deps.Engine.Step(ctx, tr, mood)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) || attempt == s.cfg.StepAttempts-1 {
			break
		}

		wait := s.cfg.StepBackoff << attempt
		s.logger.DebugContext(ctx, "retrying check-in step",
			"attempt", attempt+1,
			"turns", len(tr),
			"wait", wait,
			"error", err)
		if err := s.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %w", interview.ErrOracleUnavailable, err)
		}
	}
	return nil, lastErr
}

// retryable reports whether repeating the same step may succeed. An open
// circuit will not close within the backoff window.
func retryable(err error) bool {
	return errors.Is(err, interview.ErrOracleUnavailable) &&
		!errors.Is(err, resilience.ErrCircuitOpen) &&
		!errors.Is(err, context.Canceled)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CommitInput is a completed check-in submitted directly, without running
// the interview through the service.
type CommitInput struct {
	SessionID string
	Answers   rubric.Answers
	MoodTag   string
}

// Commit scores and stores answers.
func (s *Service) Commit(ctx context.Context, in CommitInput) (sessionlog.Record, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return sessionlog.Record{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if err := in.Answers.Validate(); err != nil {
		return sessionlog.Record{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.deps.Writer.Commit(ctx, sessionID, in.Answers, strings.TrimSpace(in.MoodTag))
}

// Log returns one record. Unknown ids yield sessionlog.ErrNotFound.
func (s *Service) Log(ctx context.Context, id string) (sessionlog.Record, error) {
	return s.deps.Reader.Get(ctx, id)
}

// Logs returns every record of a session, most recent first.
func (s *Service) Logs(ctx context.Context, sessionID string) ([]sessionlog.Record, error) {
	return s.deps.Reader.Session(ctx, sessionID)
}

// Trend returns the session's last seven scores, oldest first.
func (s *Service) Trend(ctx context.Context, sessionID string) ([]coach.TrendPoint, error) {
	if strings.TrimSpace(sessionID) == "" {
		return []coach.TrendPoint{}, nil
	}
	recs, err := s.deps.Reader.Recent(ctx, sessionID, coach.TrendWindow)
	if err != nil {
		return nil, err
	}
	return coach.Trend(recs), nil
}

// Analysis is a record with the recommendations generated for it.
type Analysis struct {
	Log             sessionlog.Record     `json:"log"`
	Recommendations coach.Recommendations `json:"analysis"`

	// Fallback is set when the generic recommendations were substituted.
	Fallback bool `json:"fallback"`
}

// Recommendations looks up a record and asks the coach about it. Coach
// failures are logged and answered with coach.FallbackRecommendations.
func (s *Service) Recommendations(ctx context.Context, id string) (Analysis, error) {
	rec, err := s.Log(ctx, id)
	if err != nil {
		return Analysis{}, err
	}

	if s.deps.Recommender == nil {
		return Analysis{Log: rec, Recommendations: coach.FallbackRecommendations(), Fallback: true}, nil
	}
	out, err := s.deps.Recommender.Recommend(ctx, inputOf(rec))
	if err != nil {
		s.logger.WarnContext(ctx, "recommendations failed, using fallback", "log_id", id, "error", err)
		return Analysis{Log: rec, Recommendations: coach.FallbackRecommendations(), Fallback: true}, nil
	}
	return Analysis{Log: rec, Recommendations: out}, nil
}

// Plan builds an improvement plan for the session's latest record. A
// session without records has no plan and no error.
func (s *Service) Plan(ctx context.Context, sessionID string) (*coach.Plan, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	rec, ok, err := s.deps.Reader.Latest(ctx, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	if s.deps.Planner == nil {
		return nil, ErrCoachUnavailable
	}
	return s.deps.Planner.Plan(ctx, inputOf(rec))
}

// Explain explains a questionnaire question, continuing history if given.
func (s *Service) Explain(ctx context.Context, question string, history []coach.ChatMessage) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if s.deps.Explainer == nil {
		return "", ErrCoachUnavailable
	}
	return s.deps.Explainer.Explain(ctx, question, history)
}

func inputOf(rec sessionlog.Record) coach.Input {
	return coach.Input{Score: rec.Score, Answers: rec.Answers, MoodTag: rec.MoodTag}
}
