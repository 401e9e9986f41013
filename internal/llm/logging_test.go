package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/abhisek/equilibrium/internal/store"
)

type fakeRecorder struct {
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeRecorder) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.events = append(f.events, data)
	return f.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"status":"IN_PROGRESS","question":"How is your sleep?"}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	rec := &fakeRecorder{}
	p := WithLogging(mock, WithRecorder(rec))

	ctx := WithPurpose(context.Background(), "checkin-step")
	_, err := p.Generate(ctx, Request{
		System:   "coach",
		Messages: []Message{{Role: RoleUser, Content: "next"}},
		Schema:   statusSchema(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Provider != "mock" || ev.Purpose != "checkin-step" || !ev.Success {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.InputTokens != 12 || ev.OutputTokens != 7 {
		t.Errorf("unexpected token counts %+v", ev)
	}
	for _, want := range []string{"[system]\ncoach", "[user]\nnext", "[schema: test-status]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
	if !strings.Contains(ev.ResponseBody, "How is your sleep?") {
		t.Errorf("response body not recorded: %s", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}})
	rec := &fakeRecorder{}
	var buf bytes.Buffer
	p := WithLogging(mock, WithRecorder(rec), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected error to pass through, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Success || rec.events[0].ErrorMessage == "" {
		t.Fatalf("expected failed event, got %+v", rec.events)
	}
	if !strings.Contains(buf.String(), "llm request failed") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
}

func TestLogging_RecorderErrorDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	var buf bytes.Buffer
	p := WithLogging(mock,
		WithRecorder(&fakeRecorder{err: errors.New("db locked")}),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "failed to record llm request event") {
		t.Errorf("expected recorder warning, got %q", buf.String())
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}
