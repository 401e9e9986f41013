package coach

import "github.com/abhisek/equilibrium/internal/llm"

// Icons the recommendation cards may use.
var Icons = []string{"Smile", "Coffee", "Leaf", "Footprints", "BrainCircuit", "Bed"}

func iconEnum() []any {
	out := make([]any, len(Icons))
	for i, s := range Icons {
		out[i] = s
	}
	return out
}

// RecommendationsSchema is the structured output of Recommender.
var RecommendationsSchema = &llm.Schema{
	Name:        "checkin-recommendations",
	Description: "A short assessment of burnout level and two coping strategies",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level": map[string]any{
				"type":        "string",
				"description": "Short, encouraging assessment of the burnout level, e.g. 'In a Good Place' or 'Mild Burnout Risk'",
			},
			"recommendations": map[string]any{
				"type":     "array",
				"minItems": 2,
				"maxItems": 2,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"iconName": map[string]any{
							"type": "string",
							"enum": iconEnum(),
						},
						"title": map[string]any{
							"type":        "string",
							"description": "Short, catchy title",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "Concise, actionable coping strategy",
						},
					},
					"required":             []any{"iconName", "title", "description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"level", "recommendations"},
		"additionalProperties": false,
	},
}

// PlanSchema is the structured output of Planner.
var PlanSchema = &llm.Schema{
	Name:        "improvement-plan",
	Description: "An introduction and three improvement strategies with checklists",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"introduction": map[string]any{
				"type":        "string",
				"description": "Brief, empathetic introduction acknowledging the person's current state",
			},
			"strategies": map[string]any{
				"type":     "array",
				"minItems": 3,
				"maxItems": 3,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short, encouraging title",
						},
						"rationale": map[string]any{
							"type":        "string",
							"description": "Why this strategy helps, linked to the person's answers",
						},
						"checklist": map[string]any{
							"type":     "array",
							"minItems": 3,
							"maxItems": 5,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"text": map[string]any{
										"type":        "string",
										"description": "One small, concrete step",
									},
								},
								"required":             []any{"text"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"title", "rationale", "checklist"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"introduction", "strategies"},
		"additionalProperties": false,
	},
}
