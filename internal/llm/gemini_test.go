package llm

import "testing"

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":   map[string]any{"type": "string", "enum": []any{"IN_PROGRESS", "COMPLETED"}},
			"question": map[string]any{"type": []any{"string", "null"}},
			"q1":       map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			"tips": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"status", "question"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if len(schema.Properties["status"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(schema.Properties["status"].Enum))
	}

	q := schema.Properties["question"]
	if q.Type != "STRING" || q.Nullable == nil || !*q.Nullable {
		t.Fatalf("expected nullable STRING for question, got %+v", q)
	}

	q1 := schema.Properties["q1"]
	if q1.Type != "INTEGER" || q1.Minimum == nil || *q1.Minimum != 1 || q1.Maximum == nil || *q1.Maximum != 5 {
		t.Fatalf("expected bounded INTEGER for q1, got %+v", q1)
	}
	if schema.Properties["tips"].Items.Type != "STRING" {
		t.Fatalf("expected STRING items, got %s", schema.Properties["tips"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}
