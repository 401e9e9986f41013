// Package sessionlog scores completed check-ins and persists them as
// session log records through a pluggable Store.
package sessionlog

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/equilibrium/internal/rubric"
)

var (
	// ErrStoreFailure wraps any error returned by the Store.
	ErrStoreFailure = errors.New("store failure")

	// ErrNotFound is returned by GetByID when no record has the id.
	ErrNotFound = errors.New("session log not found")
)

// Record is one persisted check-in. Score is always rubric.Score(Answers).
type Record struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Score     int            `json:"score"`
	Answers   rubric.Answers `json:"answers"`
	MoodTag   string         `json:"moodTag,omitempty"`
	LoggedAt  time.Time      `json:"loggedAt"`
}

// NewRecord is a record before the store assigns its id and timestamp.
type NewRecord struct {
	SessionID string
	Score     int
	Answers   rubric.Answers
	MoodTag   string
}

// Store persists session log records. Implementations assign ID and
// LoggedAt on Insert.
type Store interface {
	Insert(ctx context.Context, rec NewRecord) (Record, error)

	// GetByID returns ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (Record, error)

	// GetBySessionID returns every record of the session, most recent
	// first. An unknown session yields an empty slice.
	GetBySessionID(ctx context.Context, sessionID string) ([]Record, error)
}
