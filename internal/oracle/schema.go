package oracle

import (
	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/llm"
	"github.com/abhisek/equilibrium/internal/rubric"
)

const (
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

// QuestionSchema constrains replies that must ask another question.
var QuestionSchema = &llm.Schema{
	Name:        "checkin-question",
	Description: "The next check-in question to ask the user",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":   statusProperty(statusInProgress),
			"question": questionProperty("string"),
		},
		"required":             []any{"status", "question"},
		"additionalProperties": false,
	},
}

// FinalSchema constrains replies that must carry the final mapping.
var FinalSchema = &llm.Schema{
	Name:        "checkin-final-mapping",
	Description: "The final mapping of the whole conversation onto the seven burnout areas",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":        statusProperty(statusCompleted),
			"mappedAnswers": mappedAnswersProperty("object"),
		},
		"required":             []any{"status", "mappedAnswers"},
		"additionalProperties": false,
	},
}

// StepSchema allows either a next question or the final mapping.
var StepSchema = &llm.Schema{
	Name:        "checkin-step",
	Description: "Either the next check-in question or the final mapping",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":        statusProperty(statusInProgress, statusCompleted),
			"question":      questionProperty([]any{"string", "null"}),
			"mappedAnswers": mappedAnswersProperty([]any{"object", "null"}),
		},
		"required":             []any{"status", "question", "mappedAnswers"},
		"additionalProperties": false,
	},
}

// schemaFor picks the narrowest schema the phase allows.
func schemaFor(p interview.Phase) *llm.Schema {
	switch {
	case !p.AllowsCompletion():
		return QuestionSchema
	case !p.AllowsQuestion():
		return FinalSchema
	default:
		return StepSchema
	}
}

func statusProperty(values ...string) map[string]any {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]any{
		"type":        "string",
		"enum":        enum,
		"description": "IN_PROGRESS when asking another question, COMPLETED when returning the final mapping",
	}
}

func questionProperty(typ any) map[string]any {
	return map[string]any{
		"type":        typ,
		"description": "The next question, phrased naturally and never repeating an earlier one",
	}
}

func mappedAnswersProperty(typ any) map[string]any {
	props := make(map[string]any, len(rubric.Dimensions))
	required := make([]any, 0, len(rubric.Dimensions))
	for _, d := range rubric.Dimensions {
		props[d.Key] = map[string]any{
			"type":        "integer",
			"minimum":     rubric.MinAnswer,
			"maximum":     rubric.MaxAnswer,
			"description": "Score for: " + d.Question,
		}
		required = append(required, d.Key)
	}
	return map[string]any{
		"type":                 typ,
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
