// Package coach holds the LLM flows that run around a logged check-in:
// recommendations for a single record, an improvement plan for the latest
// record of a session, and free-text explanations of questionnaire
// questions. It also shapes records into trend points.
package coach

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/equilibrium/internal/rubric"
)

// ErrInvalidOutput is returned when a reply passed the schema but broke a
// rule the schema cannot express.
var ErrInvalidOutput = errors.New("invalid coach output")

// Config holds generation parameters shared by the flows.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Input is the logged check-in a flow reasons about.
type Input struct {
	Score   int
	Answers rubric.Answers
	MoodTag string
}

// writeAnswers lists the score and every dimension with its direction.
func writeAnswers(b *strings.Builder, in Input) {
	fmt.Fprintf(b, "Burnout score: %d/100 (%s)\n", in.Score, rubric.BandOf(in.Score))
	b.WriteString("Answers (1-5 scale):\n")
	for i, d := range rubric.Dimensions {
		dir := "lower is worse"
		if d.Polarity == rubric.HigherIsWorse {
			dir = "higher is worse"
		}
		fmt.Fprintf(b, "- %s: %s %d (%s)\n", d.Key, d.Question, in.Answers.Get(i), dir)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOutput, fmt.Sprintf(format, args...))
}
