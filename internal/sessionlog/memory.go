package sessionlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and offline check-ins.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SetClock overrides the timestamp source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Insert(_ context.Context, rec NewRecord) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Record{
		ID:        uuid.NewString(),
		SessionID: rec.SessionID,
		Score:     rec.Score,
		Answers:   rec.Answers,
		MoodTag:   rec.MoodTag,
		LoggedAt:  m.now().UTC(),
	}
	m.records = append(m.records, r)
	return r, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryStore) GetBySessionID(_ context.Context, sessionID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Record{}
	// Walk backwards so equal timestamps keep insertion order reversed.
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].SessionID == sessionID {
			out = append(out, m.records[i])
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.LoggedAt.Compare(a.LoggedAt)
	})
	return out, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
