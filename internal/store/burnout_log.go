package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

// LogRepo implements sessionlog.Store on the burnout_logs table.
type LogRepo struct {
	s *Store
}

var _ sessionlog.Store = (*LogRepo)(nil)

var logSelectColumns = []string{
	"id", "session_id", "score",
	"q1", "q2", "q3", "q4", "q5", "q6", "q7",
	"mood_tag", "logged_at",
}

func (r *LogRepo) Insert(ctx context.Context, rec sessionlog.NewRecord) (sessionlog.Record, error) {
	seq, err := r.s.seq.Next(ctx)
	if err != nil {
		return sessionlog.Record{}, err
	}

	out := sessionlog.Record{
		ID:        uuid.NewString(),
		SessionID: rec.SessionID,
		Score:     rec.Score,
		Answers:   rec.Answers,
		MoodTag:   rec.MoodTag,
		LoggedAt:  r.s.timestamp(),
	}
	a := rec.Answers
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(logsTable).
		Columns("id", "sequence", "session_id", "score", "q1", "q2", "q3", "q4", "q5", "q6", "q7", "mood_tag", "logged_at").
		Values(out.ID, seq, out.SessionID, out.Score, a.Q1, a.Q2, a.Q3, a.Q4, a.Q5, a.Q6, a.Q7, out.MoodTag, out.LoggedAt).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return sessionlog.Record{}, fmt.Errorf("insert burnout log: %w", err)
	}
	return out, nil
}

func (r *LogRepo) GetByID(ctx context.Context, id string) (sessionlog.Record, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(logSelectColumns...).
		From(entsql.Table(logsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanLog(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return sessionlog.Record{}, sessionlog.ErrNotFound
	}
	if err != nil {
		return sessionlog.Record{}, fmt.Errorf("get burnout log %s: %w", id, err)
	}
	return rec, nil
}

func (r *LogRepo) GetBySessionID(ctx context.Context, sessionID string) ([]sessionlog.Record, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(logSelectColumns...).
		From(entsql.Table(logsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("logged_at"), entsql.Desc("sequence")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query burnout logs: %w", err)
	}
	defer rows.Close()

	out := []sessionlog.Record{}
	for rows.Next() {
		rec, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan burnout log: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (sessionlog.Record, error) {
	var (
		rec sessionlog.Record
		a   rubric.Answers
	)
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.Score,
		&a.Q1, &a.Q2, &a.Q3, &a.Q4, &a.Q5, &a.Q6, &a.Q7,
		&rec.MoodTag, &rec.LoggedAt)
	if err != nil {
		return sessionlog.Record{}, err
	}
	rec.Answers = a
	rec.LoggedAt = rec.LoggedAt.UTC()
	return rec, nil
}
