package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("EQUILIBRIUM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EQUILIBRIUM_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := "equilibrium_test_" + uuid.NewString()[:8]
	s, closeFn, err := Connect(ctx, uri, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.logs.Database().Drop(context.Background())
		closeFn(context.Background())
	})
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	answers := rubric.FromValues([7]int{4, 2, 2, 4, 2, 2, 2})
	rec, err := s.Insert(ctx, sessionlog.NewRecord{SessionID: "s-1", Score: 75, Answers: answers, MoodTag: "Tired"})
	require.NoError(t, err)

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, answers, got.Answers)
	assert.Equal(t, rubric.MustScore(got.Answers), got.Score)
	assert.True(t, rec.LoggedAt.Equal(got.LoggedAt))

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, sessionlog.ErrNotFound)
}

func TestStore_SessionNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a := rubric.FromValues([7]int{3, 3, 3, 3, 3, 3, 3})
	first, err := s.Insert(ctx, sessionlog.NewRecord{SessionID: "s", Score: 50, Answers: a})
	require.NoError(t, err)
	second, err := s.Insert(ctx, sessionlog.NewRecord{SessionID: "s", Score: 50, Answers: a})
	require.NoError(t, err)

	recs, err := s.GetBySessionID(ctx, "s")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second.ID, recs[0].ID)
	assert.Equal(t, first.ID, recs[1].ID)

	empty, err := s.GetBySessionID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
