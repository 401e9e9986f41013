package oracle

import (
	"context"

	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/rubric"
)

// Canonical asks the seven rubric questions verbatim, in rubric order, and
// maps each answer straight onto its dimension. It needs no provider and is
// used for offline check-ins.
type Canonical struct{}

var _ interview.Oracle = Canonical{}

// Next returns the first rubric question not yet asked, or the mapping once
// all seven have been answered.
func (Canonical) Next(_ context.Context, req interview.Request) (interview.Result, error) {
	var vals [7]int
	for i, d := range rubric.Dimensions {
		turn, ok := find(req.Transcript, d.Question)
		if !ok {
			if req.Phase == interview.PhaseFinal {
				return nil, interview.Violation("no answer for %s after %d turns", d.Key, len(req.Transcript))
			}
			return interview.InProgress{NextQuestion: d.Question}, nil
		}
		vals[i] = turn.Answer
	}
	return interview.Completed{Answers: rubric.FromValues(vals)}, nil
}

func find(t interview.Transcript, question string) (interview.Turn, bool) {
	for _, turn := range t {
		if turn.Question == question {
			return turn, true
		}
	}
	return interview.Turn{}, false
}
