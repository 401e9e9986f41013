package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/abhisek/equilibrium/internal/checkin"
	"github.com/abhisek/equilibrium/internal/coach"
	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/llm"
	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

const maxBodyBytes = 64 << 10

type handler struct {
	svc    *checkin.Service
	logger *slog.Logger
}

// StepRequest is the body of POST /v1/checkins/step.
type StepRequest struct {
	SessionID string               `json:"sessionId"`
	History   interview.Transcript `json:"history"`
	MoodTag   string               `json:"moodTag,omitempty"`
}

// CommitRequest is the body of POST /v1/checkins/commit.
type CommitRequest struct {
	SessionID string         `json:"sessionId"`
	Answers   rubric.Answers `json:"answers"`
	MoodTag   string         `json:"moodTag,omitempty"`
}

// ExplainRequest is the body of POST /v1/explain.
type ExplainRequest struct {
	Question string              `json:"question"`
	History  []coach.ChatMessage `json:"history,omitempty"`
}

func (h *handler) step(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.svc.Step(r.Context(), checkin.StepInput{
		SessionID:  req.SessionID,
		Transcript: req.History,
		MoodTag:    req.MoodTag,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.svc.Commit(r.Context(), checkin.CommitInput{
		SessionID: req.SessionID,
		Answers:   req.Answers,
		MoodTag:   req.MoodTag,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handler) getLog(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Log(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) recommendations(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Recommendations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) sessionLogs(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Logs(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []sessionlog.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": recs})
}

func (h *handler) trend(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.Trend(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": points})
}

func (h *handler) plan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.Plan(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

func (h *handler) explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if !h.decode(w, r, &req) {
		return
	}
	text, err := h.svc.Explain(r.Context(), req.Question, req.History)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	var (
		unavailable *llm.ErrProviderUnavailable
		rateLimit   *llm.ErrRateLimit
		invalid     *llm.ErrInvalidResponse
		truncated   *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, checkin.ErrInvalidInput),
		errors.Is(err, interview.ErrInvalidTranscript),
		errors.Is(err, rubric.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, sessionlog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrOracleContractViolation),
		errors.Is(err, coach.ErrInvalidOutput),
		errors.As(err, &invalid),
		errors.As(err, &truncated):
		return http.StatusBadGateway
	case errors.Is(err, interview.ErrOracleUnavailable),
		errors.Is(err, checkin.ErrCoachUnavailable),
		errors.As(err, &unavailable),
		errors.As(err, &rateLimit):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
		if errors.Is(err, sessionlog.ErrStoreFailure) {
			msg = "failed to save or load the check-in, please try again"
		}
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
