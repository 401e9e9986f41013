package sessionlog

import (
	"context"
	"errors"
)

// Reader wraps Store lookups with the error kinds callers match on.
type Reader struct {
	store Store
}

func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// Get returns the record with id. ErrNotFound passes through; any other
// store error is an ErrStoreFailure.
func (r *Reader) Get(ctx context.Context, id string) (Record, error) {
	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
		return Record{}, storeFailure(err)
	}
	return rec, nil
}

// Session returns all records of a session, most recent first.
func (r *Reader) Session(ctx context.Context, sessionID string) ([]Record, error) {
	recs, err := r.store.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return recs, nil
}

// Latest returns the most recent record of a session and false when the
// session has none.
func (r *Reader) Latest(ctx context.Context, sessionID string) (Record, bool, error) {
	recs, err := r.Session(ctx, sessionID)
	if err != nil || len(recs) == 0 {
		return Record{}, false, err
	}
	return recs[0], true, nil
}

// Recent returns up to n records, most recent first.
func (r *Reader) Recent(ctx context.Context, sessionID string, n int) ([]Record, error) {
	recs, err := r.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}
