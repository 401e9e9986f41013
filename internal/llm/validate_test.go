package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func answersSchema() *Schema {
	return &Schema{
		Name:        "test-answers",
		Description: "Mapped rubric answers",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": []any{"COMPLETED"}},
				"mappedAnswers": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"q1": map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
						"q2": map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
					},
					"required": []any{"q1", "q2"},
				},
				"note": map[string]any{"type": []any{"string", "null"}},
			},
			"required": []any{"status", "mappedAnswers"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"status":"COMPLETED","mappedAnswers":{"q1":3,"q2":5}}`, false},
		{"valid with null optional", `{"status":"COMPLETED","mappedAnswers":{"q1":1,"q2":1},"note":null}`, false},
		{"missing nested field", `{"status":"COMPLETED","mappedAnswers":{"q1":3}}`, true},
		{"out of range", `{"status":"COMPLETED","mappedAnswers":{"q1":0,"q2":6}}`, true},
		{"wrong type", `{"status":"COMPLETED","mappedAnswers":{"q1":"three","q2":2}}`, true},
		{"invalid enum", `{"status":"DONE","mappedAnswers":{"q1":3,"q2":2}}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(answersSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("expected raw content %q, got %q", tt.raw, inv.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`plain text`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_CachesCompiledSchema(t *testing.T) {
	s := answersSchema()
	s.Name = "test-answers-cache"
	if err := validateResponse(s, json.RawMessage(`{"status":"COMPLETED","mappedAnswers":{"q1":3,"q2":5}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := schemaCache.Load(s.Name); !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}
