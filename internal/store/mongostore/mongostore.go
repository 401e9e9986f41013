// Package mongostore is a MongoDB-backed sessionlog.Store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/equilibrium/internal/rubric"
	"github.com/abhisek/equilibrium/internal/sessionlog"
)

const collectionName = "burnout_logs"

type logDocument struct {
	ID        string         `bson:"_id"`
	Seq       int64          `bson:"seq"`
	SessionID string         `bson:"session_id"`
	Score     int            `bson:"score"`
	Answers   rubric.Answers `bson:"answers"`
	MoodTag   string         `bson:"mood_tag,omitempty"`
	LoggedAt  time.Time      `bson:"logged_at"`
}

func (d logDocument) record() sessionlog.Record {
	return sessionlog.Record{
		ID:        d.ID,
		SessionID: d.SessionID,
		Score:     d.Score,
		Answers:   d.Answers,
		MoodTag:   d.MoodTag,
		LoggedAt:  d.LoggedAt.UTC(),
	}
}

// Store keeps session logs in one collection.
type Store struct {
	logs *mongo.Collection
	now  func() time.Time
	seq  atomic.Int64
}

var _ sessionlog.Store = (*Store)(nil)

// New creates a Store on db and ensures its indexes.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{logs: db.Collection(collectionName), now: time.Now}
	_, err := s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "logged_at", Value: -1}, {Key: "seq", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create session index: %w", err)
	}
	return s, nil
}

// Connect dials uri, pings the server and opens the Store on database.
// The returned close func disconnects the client.
func Connect(ctx context.Context, uri, database string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	s, err := New(ctx, client.Database(database))
	if err != nil {
		client.Disconnect(ctx)
		return nil, nil, err
	}
	return s, client.Disconnect, nil
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.logs.Database().Client().Ping(ctx, nil)
}

func (s *Store) Insert(ctx context.Context, rec sessionlog.NewRecord) (sessionlog.Record, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	doc := logDocument{
		ID:        uuid.NewString(),
		Seq:       now.UnixNano() + s.seq.Add(1),
		SessionID: rec.SessionID,
		Score:     rec.Score,
		Answers:   rec.Answers,
		MoodTag:   rec.MoodTag,
		LoggedAt:  now,
	}
	if _, err := s.logs.InsertOne(ctx, doc); err != nil {
		return sessionlog.Record{}, fmt.Errorf("insert burnout log: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (sessionlog.Record, error) {
	var doc logDocument
	err := s.logs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sessionlog.Record{}, sessionlog.ErrNotFound
	}
	if err != nil {
		return sessionlog.Record{}, fmt.Errorf("get burnout log %s: %w", id, err)
	}
	return doc.record(), nil
}

func (s *Store) GetBySessionID(ctx context.Context, sessionID string) ([]sessionlog.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "logged_at", Value: -1}, {Key: "seq", Value: -1}})
	cursor, err := s.logs.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find burnout logs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []logDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode burnout logs: %w", err)
	}

	out := make([]sessionlog.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}
