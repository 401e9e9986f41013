// Package cache adds a Redis read-through layer in front of a
// sessionlog.Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/equilibrium/internal/sessionlog"
)

// DefaultTTL bounds how long a cached record or session list lives.
const DefaultTTL = 24 * time.Hour

// LogCache caches GetByID and GetBySessionID results. Records are
// immutable once written, so a record key never needs invalidation; a
// session list is dropped whenever the session gains a record. Redis errors
// degrade to the inner store and are only logged.
type LogCache struct {
	inner  sessionlog.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ sessionlog.Store = (*LogCache)(nil)

func NewLogCache(inner sessionlog.Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *LogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LogCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func recordKey(id string) string {
	return fmt.Sprintf("equilibrium:log:%s", id)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("equilibrium:session:%s:logs", sessionID)
}

// Ping checks Redis is reachable.
func (c *LogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *LogCache) Insert(ctx context.Context, rec sessionlog.NewRecord) (sessionlog.Record, error) {
	out, err := c.inner.Insert(ctx, rec)
	if err != nil {
		return out, err
	}
	if err := c.client.Del(ctx, sessionKey(out.SessionID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidate failed", "session_id", out.SessionID, "err", err)
	}
	c.set(ctx, recordKey(out.ID), out)
	return out, nil
}

func (c *LogCache) GetByID(ctx context.Context, id string) (sessionlog.Record, error) {
	var rec sessionlog.Record
	if c.get(ctx, recordKey(id), &rec) {
		return rec, nil
	}
	rec, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return rec, err
	}
	c.set(ctx, recordKey(id), rec)
	return rec, nil
}

func (c *LogCache) GetBySessionID(ctx context.Context, sessionID string) ([]sessionlog.Record, error) {
	var recs []sessionlog.Record
	if c.get(ctx, sessionKey(sessionID), &recs) {
		return recs, nil
	}
	recs, err := c.inner.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, sessionKey(sessionID), recs)
	return recs, nil
}

// get reports a cache hit. Misses and Redis errors both return false.
func (c *LogCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *LogCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}
