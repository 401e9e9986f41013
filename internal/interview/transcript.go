package interview

import (
	"fmt"
	"strings"

	"github.com/abhisek/equilibrium/internal/rubric"
)

// Turn bounds for one check-in.
const (
	MinTurns = 7
	MaxTurns = 10
)

// Turn is one answered question.
type Turn struct {
	Question string `json:"question"`
	Answer   int    `json:"answer"`
}

// Transcript is the ordered history of a check-in. The caller owns it and
// passes the full value on every step.
type Transcript []Turn

// Validate checks the structural invariants of a transcript: bounded
// length, answers on the rubric scale, non-empty and pairwise distinct
// questions.
func (t Transcript) Validate() error {
	if len(t) > MaxTurns {
		return fmt.Errorf("%w: %d turns exceeds the limit of %d", ErrInvalidTranscript, len(t), MaxTurns)
	}
	seen := make(map[string]int, len(t))
	for i, turn := range t {
		q := normalizeQuestion(turn.Question)
		if q == "" {
			return fmt.Errorf("%w: turn %d has an empty question", ErrInvalidTranscript, i+1)
		}
		if turn.Answer < rubric.MinAnswer || turn.Answer > rubric.MaxAnswer {
			return fmt.Errorf("%w: turn %d answer %d outside [%d,%d]",
				ErrInvalidTranscript, i+1, turn.Answer, rubric.MinAnswer, rubric.MaxAnswer)
		}
		if prev, dup := seen[q]; dup {
			return fmt.Errorf("%w: turn %d repeats the question of turn %d", ErrInvalidTranscript, i+1, prev)
		}
		seen[q] = i + 1
	}
	return nil
}

// Asked reports whether question was already asked in the transcript.
func (t Transcript) Asked(question string) bool {
	q := normalizeQuestion(question)
	for _, turn := range t {
		if normalizeQuestion(turn.Question) == q {
			return true
		}
	}
	return false
}

// Questions returns the asked questions in order.
func (t Transcript) Questions() []string {
	out := make([]string, len(t))
	for i, turn := range t {
		out[i] = turn.Question
	}
	return out
}

// Append returns a copy of t with one more turn. The receiver is not modified.
func (t Transcript) Append(question string, answer int) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, Turn{Question: question, Answer: answer})
}

// Matching is exact and case sensitive; only surrounding whitespace is ignored.
func normalizeQuestion(q string) string {
	return strings.TrimSpace(q)
}
