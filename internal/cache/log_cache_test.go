package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

// countingStore counts reads that reach the backing store.
type countingStore struct {
	*sessionlog.MemoryStore
	byID, bySession int
}

func (c *countingStore) GetByID(ctx context.Context, id string) (sessionlog.Record, error) {
	c.byID++
	return c.MemoryStore.GetByID(ctx, id)
}

func (c *countingStore) GetBySessionID(ctx context.Context, sessionID string) ([]sessionlog.Record, error) {
	c.bySession++
	return c.MemoryStore.GetBySessionID(ctx, sessionID)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRecord(session string, v int) sessionlog.NewRecord {
	a := rubric.FromValues([7]int{v, v, v, v, v, v, v})
	return sessionlog.NewRecord{SessionID: session, Score: rubric.MustScore(a), Answers: a}
}

func TestLogCache_RedisDownFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := &countingStore{MemoryStore: sessionlog.NewMemoryStore()}
	c := NewLogCache(inner, client, time.Minute, quiet)
	ctx := context.Background()

	rec, err := c.Insert(ctx, newRecord("s", 3))
	require.NoError(t, err)

	got, err := c.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	recs, err := c.GetBySessionID(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, inner.byID)
	assert.Equal(t, 1, inner.bySession)
}

func TestLogCache_ReadThrough(t *testing.T) {
	addr := os.Getenv("EQUILIBRIUM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EQUILIBRIUM_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	inner := &countingStore{MemoryStore: sessionlog.NewMemoryStore()}
	c := NewLogCache(inner, client, time.Minute, quiet)
	ctx := context.Background()
	session := "cache-test-" + uuid.NewString()

	rec, err := c.Insert(ctx, newRecord(session, 2))
	require.NoError(t, err)

	// Insert warms the record key.
	got, err := c.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Score, got.Score)
	assert.Equal(t, 0, inner.byID)

	_, err = c.GetBySessionID(ctx, session)
	require.NoError(t, err)
	_, err = c.GetBySessionID(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.bySession)

	// A new record invalidates the session list.
	_, err = c.Insert(ctx, newRecord(session, 4))
	require.NoError(t, err)
	recs, err := c.GetBySessionID(ctx, session)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 2, inner.bySession)

	_, err = c.GetByID(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, sessionlog.ErrNotFound)
}
