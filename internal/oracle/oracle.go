// Package oracle connects the interview engine to a text-generation
// provider and ships deterministic oracles for offline use and tests.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/llm"
	"github.com/abhisek/equilibrium/internal/rubric"
)

// Purpose labels oracle requests in the LLM audit log.
const Purpose = "checkin-step"

// Config holds generation parameters for the LLM oracle.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.7,
	}
}

// LLM is an interview.Oracle backed by an llm.Provider. It makes exactly
// one provider call per Next; any retrying belongs to the provider chain
// the caller builds or to the caller of the engine.
type LLM struct {
	provider llm.Provider
	cfg      Config
}

var _ interview.Oracle = (*LLM)(nil)

// NewLLM creates an LLM oracle.
func NewLLM(provider llm.Provider, cfg Config) *LLM {
	return &LLM{provider: provider, cfg: cfg}
}

// Next asks the provider for the next question or the final mapping.
func (o *LLM) Next(ctx context.Context, req interview.Request) (interview.Result, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	userMsg, err := buildStepMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build oracle prompt: %w", err)
	}

	resp, err := o.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      schemaFor(req.Phase),
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}
	return parseReply(resp.Content)
}

// classifyProviderError separates replies that arrived as JSON but broke the
// schema from everything else, which counts as the oracle being unavailable.
func classifyProviderError(err error) error {
	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) && hasJSON(inv.Content) {
		return &interview.ViolationError{Reason: inv.Error(), Content: inv.Content}
	}
	return fmt.Errorf("%w: %w", interview.ErrOracleUnavailable, err)
}

func hasJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && json.Valid(raw)
}

type stepOutput struct {
	Status        string         `json:"status"`
	Question      *string        `json:"question"`
	MappedAnswers *mappedAnswers `json:"mappedAnswers"`
}

// Numbers are decoded as float64 so that 4.0 and 4.5 can be told apart
// from a type error.
type mappedAnswers struct {
	Q1 *float64 `json:"q1"`
	Q2 *float64 `json:"q2"`
	Q3 *float64 `json:"q3"`
	Q4 *float64 `json:"q4"`
	Q5 *float64 `json:"q5"`
	Q6 *float64 `json:"q6"`
	Q7 *float64 `json:"q7"`
}

func (m *mappedAnswers) fields() [7]*float64 {
	return [7]*float64{m.Q1, m.Q2, m.Q3, m.Q4, m.Q5, m.Q6, m.Q7}
}

// parseReply turns raw provider output into an interview.Result.
func parseReply(raw json.RawMessage) (interview.Result, error) {
	if !hasJSON(raw) {
		return nil, fmt.Errorf("%w: no structured output", interview.ErrOracleUnavailable)
	}

	var out stepOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, violation(raw, "decode reply: %v", err)
	}

	switch out.Status {
	case statusInProgress:
		if out.MappedAnswers != nil {
			return nil, violation(raw, "IN_PROGRESS reply carries mappedAnswers")
		}
		if out.Question == nil {
			return nil, violation(raw, "IN_PROGRESS reply has no question")
		}
		return interview.InProgress{NextQuestion: *out.Question}, nil

	case statusCompleted:
		if out.MappedAnswers == nil {
			return nil, violation(raw, "COMPLETED reply has no mappedAnswers")
		}
		answers, err := out.MappedAnswers.toAnswers()
		if err != nil {
			return nil, violation(raw, "%v", err)
		}
		return interview.Completed{Answers: answers}, nil

	default:
		return nil, violation(raw, "unknown status %q", out.Status)
	}
}

func (m *mappedAnswers) toAnswers() (rubric.Answers, error) {
	var vals [7]int
	for i, f := range m.fields() {
		key := rubric.Dimensions[i].Key
		if f == nil {
			return rubric.Answers{}, fmt.Errorf("mappedAnswers.%s is missing", key)
		}
		if *f != math.Trunc(*f) {
			return rubric.Answers{}, fmt.Errorf("mappedAnswers.%s = %v is not an integer", key, *f)
		}
		vals[i] = int(*f)
	}
	a := rubric.FromValues(vals)
	if err := a.Validate(); err != nil {
		return rubric.Answers{}, err
	}
	return a, nil
}

func violation(raw json.RawMessage, format string, args ...any) error {
	v := interview.Violation(format, args...)
	v.Content = raw
	return v
}
