package interview

import "github.com/abhisek/equilibrium/internal/rubric"

// Result is the outcome of one step: either InProgress or Completed.
type Result interface {
	isResult()
}

// InProgress carries the next question to show the user.
type InProgress struct {
	NextQuestion string
}

// Completed carries the final mapping of the whole transcript.
type Completed struct {
	Answers rubric.Answers
}

func (InProgress) isResult() {}
func (Completed) isResult()  {}

// Phase tells the oracle what kind of reply the engine will accept.
type Phase string

const (
	// PhaseOpening is the first step: ask an opening question.
	PhaseOpening Phase = "opening"
	// PhaseProbing requires another question; completion is not allowed yet.
	PhaseProbing Phase = "probing"
	// PhaseClosing allows either another question or the final mapping.
	PhaseClosing Phase = "closing"
	// PhaseFinal requires the final mapping.
	PhaseFinal Phase = "final"
)

// PhaseFor derives the phase from the number of answered turns.
func PhaseFor(turns int) Phase {
	switch {
	case turns == 0:
		return PhaseOpening
	case turns < MinTurns:
		return PhaseProbing
	case turns < MaxTurns:
		return PhaseClosing
	default:
		return PhaseFinal
	}
}

// AllowsQuestion reports whether a continuation is acceptable in p.
func (p Phase) AllowsQuestion() bool { return p != PhaseFinal }

// AllowsCompletion reports whether a final mapping is acceptable in p.
func (p Phase) AllowsCompletion() bool { return p == PhaseClosing || p == PhaseFinal }
