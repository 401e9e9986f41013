package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// EventRepo stores and queries LLM request audit events.
type EventRepo struct {
	s *Store
}

// ErrEventNotFound is returned by GetLLMEvent for an unknown id.
var ErrEventNotFound = errors.New("llm event not found")

var eventSelectColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (r *EventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seq, err := r.s.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(eventsTable).
		Columns(eventSelectColumns[1:]...).
		Values(seq, r.s.timestamp(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns events newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := entsql.Dialect(dialect.SQLite).
		Select(eventSelectColumns...).
		From(entsql.Table(eventsTable))
	if p := eventFilter(opts); p != nil {
		b = b.Where(p)
	}
	b = b.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		b = b.Limit(opts.Limit)
	}

	query, args := b.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *EventRepo) GetLLMEvent(ctx context.Context, id int) (LLMRequestEvent, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(eventSelectColumns...).
		From(entsql.Table(eventsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	ev, err := scanEvent(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return LLMRequestEvent{}, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	if err != nil {
		return LLMRequestEvent{}, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return ev, nil
}

// LLMUsageByPurpose aggregates calls and tokens per purpose, busiest first.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageByPurpose, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			"purpose",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency_ms"),
		).
		From(entsql.Table(eventsTable)).
		GroupBy("purpose").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageByPurpose
	for rows.Next() {
		var u LLMUsageByPurpose
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates calls and tokens per model, busiest first.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsageByModel, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			"model",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		).
		From(entsql.Table(eventsTable)).
		GroupBy("model").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageByModel
	for rows.Next() {
		var u LLMUsageByModel
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func eventFilter(opts QueryOpts) *entsql.Predicate {
	var ps []*entsql.Predicate
	if opts.Purpose != "" {
		ps = append(ps, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		ps = append(ps, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		ps = append(ps, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if len(ps) == 0 {
		return nil
	}
	return entsql.And(ps...)
}

func scanEvent(row rowScanner) (LLMRequestEvent, error) {
	var ev LLMRequestEvent
	err := row.Scan(&ev.ID, &ev.Sequence, &ev.Timestamp, &ev.Provider, &ev.Model, &ev.Purpose,
		&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &ev.Success,
		&ev.ErrorMessage, &ev.RequestBody, &ev.ResponseBody)
	ev.Timestamp = ev.Timestamp.UTC()
	return ev, err
}
