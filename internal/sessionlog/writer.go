package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/equilibrium/internal/observe"
	"github.com/abhisek/equilibrium/internal/rubric"
)

// Writer scores completed check-ins and stores them.
type Writer struct {
	store   Store
	logger  *slog.Logger
	metrics *observe.Metrics
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger for commits and store failures.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// WithMetrics enables commit and score metrics.
func WithMetrics(m *observe.Metrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

// NewWriter creates a Writer over store.
func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{store: store, logger: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Commit scores answers and inserts one record. Calling it twice with the
// same input creates two records.
func (w *Writer) Commit(ctx context.Context, sessionID string, answers rubric.Answers, moodTag string) (Record, error) {
	score, err := rubric.Score(answers)
	if err != nil {
		return Record{}, err
	}

	rec, err := w.store.Insert(ctx, NewRecord{
		SessionID: sessionID,
		Score:     score,
		Answers:   answers,
		MoodTag:   moodTag,
	})
	w.metrics.RecordCommit(ctx, score, err)
	if err != nil {
		w.logger.ErrorContext(ctx, "session log insert failed", "session_id", sessionID, "err", err)
		return Record{}, storeFailure(err)
	}

	w.logger.InfoContext(ctx, "session log committed", "session_id", sessionID, "log_id", rec.ID, "score", score)
	return rec, nil
}

// storeFailure wraps err with ErrStoreFailure unless it already is one.
func storeFailure(err error) error {
	if errors.Is(err, ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}
