package interview_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/oracle"
	"github.com/abhisek/equilibrium/internal/rubric"
)

func transcriptOf(n int) interview.Transcript {
	var t interview.Transcript
	for i := range n {
		t = t.Append(fmt.Sprintf("How was day %d?", i+1), 3)
	}
	return t
}

var sample = rubric.FromValues([7]int{4, 2, 2, 4, 2, 2, 2})

func TestStep_EmptyTranscriptWithMood(t *testing.T) {
	o := oracle.NewScripted(oracle.Ask("How are you feeling about work today?"))
	e := interview.NewEngine(o)

	res, err := e.Step(context.Background(), nil, "Stressed")
	require.NoError(t, err)
	assert.Equal(t, interview.InProgress{NextQuestion: "How are you feeling about work today?"}, res)

	require.Equal(t, 1, o.CallCount())
	assert.Equal(t, "Stressed", o.Requests[0].MoodTag)
	assert.Equal(t, interview.PhaseOpening, o.Requests[0].Phase)
}

func TestStep_ExactlyOneOracleCall(t *testing.T) {
	o := oracle.NewScripted(oracle.Fail(errors.New("timeout")), oracle.Ask("never reached?"))
	e := interview.NewEngine(o)

	_, err := e.Step(context.Background(), transcriptOf(2), "")
	require.ErrorIs(t, err, interview.ErrOracleUnavailable)
	assert.Equal(t, 1, o.CallCount())
}

func TestStep_ForcedCompletionWithAlwaysContinueOracle(t *testing.T) {
	alwaysAsk := interview.OracleFunc(func(_ context.Context, req interview.Request) (interview.Result, error) {
		return interview.InProgress{NextQuestion: fmt.Sprintf("Fresh question %d?", len(req.Transcript)+1)}, nil
	})
	e := interview.NewEngine(alwaysAsk)
	ctx := context.Background()

	var tr interview.Transcript
	for len(tr) < interview.MaxTurns {
		res, err := e.Step(ctx, tr, "")
		require.NoError(t, err)
		q, ok := res.(interview.InProgress)
		require.True(t, ok, "step %d: expected InProgress, got %T", len(tr), res)
		tr = tr.Append(q.NextQuestion, 2)
	}

	res, err := e.Step(ctx, tr, "")
	assert.Nil(t, res, "no InProgress may be returned at the question limit")
	require.ErrorIs(t, err, interview.ErrOracleContractViolation)
}

func TestStep_FinalPhaseCompletes(t *testing.T) {
	o := oracle.NewScripted(oracle.Finish(sample))
	e := interview.NewEngine(o)

	res, err := e.Step(context.Background(), transcriptOf(10), "")
	require.NoError(t, err)
	assert.Equal(t, interview.Completed{Answers: sample}, res)
	assert.Equal(t, interview.PhaseFinal, o.Requests[0].Phase)

	score, err := rubric.Score(res.(interview.Completed).Answers)
	require.NoError(t, err)
	assert.Equal(t, 75, score)
}

func TestStep_CompletionBounds(t *testing.T) {
	for n := 0; n <= interview.MaxTurns; n++ {
		t.Run(fmt.Sprintf("%d turns", n), func(t *testing.T) {
			e := interview.NewEngine(oracle.NewScripted(oracle.Finish(sample)))
			res, err := e.Step(context.Background(), transcriptOf(n), "")
			if n < interview.MinTurns {
				require.ErrorIs(t, err, interview.ErrOracleContractViolation)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, interview.Completed{}, res)
		})
	}
}

func TestStep_RejectsBadQuestions(t *testing.T) {
	tr := transcriptOf(3)
	tests := []struct {
		name string
		q    string
	}{
		{"empty", ""},
		{"whitespace", " \t\n"},
		{"repeat", "How was day 2?"},
		{"repeat with padding", "  How was day 2?  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := interview.NewEngine(oracle.NewScripted(oracle.Ask(tt.q)))
			_, err := e.Step(context.Background(), tr, "")
			require.ErrorIs(t, err, interview.ErrOracleContractViolation)
		})
	}
}

func TestStep_NextQuestionIsNeverARepeat(t *testing.T) {
	tr := transcriptOf(5)
	e := interview.NewEngine(oracle.NewScripted(oracle.Ask("  What drained you most this week?  ")))

	res, err := e.Step(context.Background(), tr, "")
	require.NoError(t, err)
	q := res.(interview.InProgress).NextQuestion
	assert.Equal(t, "What drained you most this week?", q)
	assert.False(t, tr.Asked(q))
}

func TestStep_RejectsOutOfRangeMapping(t *testing.T) {
	tests := []struct {
		name    string
		answers rubric.Answers
	}{
		{"q3 missing", rubric.Answers{Q1: 4, Q2: 2, Q4: 4, Q5: 2, Q6: 2, Q7: 2}},
		{"q7 six", rubric.FromValues([7]int{1, 1, 1, 1, 1, 1, 6})},
		{"q1 negative", rubric.FromValues([7]int{-1, 1, 1, 1, 1, 1, 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := interview.NewEngine(oracle.NewScripted(oracle.Finish(tt.answers)))
			res, err := e.Step(context.Background(), transcriptOf(8), "")
			require.ErrorIs(t, err, interview.ErrOracleContractViolation)
			assert.Nil(t, res)
		})
	}
}

func TestStep_InvalidTranscriptSkipsOracle(t *testing.T) {
	tests := []struct {
		name string
		tr   interview.Transcript
	}{
		{"too long", transcriptOf(11)},
		{"bad answer", interview.Transcript{{Question: "Q?", Answer: 9}}},
		{"duplicate", interview.Transcript{{Question: "Q?", Answer: 1}, {Question: "Q?", Answer: 1}}},
		{"empty question", interview.Transcript{{Question: "", Answer: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := oracle.NewScripted(oracle.Ask("unused?"))
			_, err := interview.NewEngine(o).Step(context.Background(), tt.tr, "")
			require.ErrorIs(t, err, interview.ErrInvalidTranscript)
			assert.Zero(t, o.CallCount())
		})
	}
}

func TestStep_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"plain error", errors.New("connection refused"), interview.ErrOracleUnavailable},
		{"deadline", context.DeadlineExceeded, interview.ErrOracleUnavailable},
		{"already unavailable", fmt.Errorf("%w: quota", interview.ErrOracleUnavailable), interview.ErrOracleUnavailable},
		{"violation passes through", interview.Violation("garbled"), interview.ErrOracleContractViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := interview.NewEngine(oracle.NewScripted(oracle.Fail(tt.err)))
			_, err := e.Step(context.Background(), transcriptOf(1), "")
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStep_NilResultIsViolation(t *testing.T) {
	e := interview.NewEngine(oracle.NewScripted(oracle.Reply{}))
	_, err := e.Step(context.Background(), nil, "")
	require.ErrorIs(t, err, interview.ErrOracleContractViolation)
}

func TestStep_LogsViolations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := interview.NewEngine(oracle.NewScripted(oracle.Ask("")), interview.WithLogger(logger))

	_, err := e.Step(context.Background(), transcriptOf(4), "")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "oracle contract violation")
	assert.Contains(t, buf.String(), "phase=probing")
	assert.Contains(t, buf.String(), "turns=4")
}

func TestStep_CanonicalCheckinEndToEnd(t *testing.T) {
	e := interview.NewEngine(oracle.Canonical{})
	ctx := context.Background()
	want := [7]int{5, 1, 1, 5, 1, 1, 1}

	var tr interview.Transcript
	for {
		res, err := e.Step(ctx, tr, "Tired")
		require.NoError(t, err)
		if done, ok := res.(interview.Completed); ok {
			assert.Equal(t, rubric.FromValues(want), done.Answers)
			assert.Equal(t, 100, rubric.MustScore(done.Answers))
			break
		}
		tr = tr.Append(res.(interview.InProgress).NextQuestion, want[len(tr)])
		require.LessOrEqual(t, len(tr), interview.MaxTurns)
	}
	assert.Len(t, tr, 7)
}
