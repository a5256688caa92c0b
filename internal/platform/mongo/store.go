// Package mongo implements the remote document store over MongoDB. The
// remote side of the engine's persistence is best-effort: every call is
// timeout-bound and connectivity failures surface as
// store.ErrUnavailable so callers can fall back to trusting local data.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/syh52/lexicon-srs/internal/store"
)

const connectTimeout = 10 * time.Second

// Connect establishes a client session against the given URI and
// verifies connectivity. The returned cleanup disconnects the client.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	cleanup := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), connectTimeout)
		defer dcancel()
		_ = client.Disconnect(dctx)
	}
	return client.Database(database), cleanup, nil
}

// Store is the MongoDB-backed store.RemoteStore.
type Store struct {
	db     *mongo.Database
	logger *slog.Logger
}

var _ store.RemoteStore = (*Store)(nil)

// NewStore creates a Store over a connected database.
// If logger is nil, a default logger will be used.
func NewStore(db *mongo.Database, logger *slog.Logger) *Store {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "mongo_store")),
	}
}

// Query implements store.RemoteStore.
func (s *Store) Query(ctx context.Context, collection string, filter store.Record) ([]store.Record, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, toBSON(filter))
	if err != nil {
		return nil, wrapErr("query", collection, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapErr("query", collection, err)
	}

	records := make([]store.Record, len(docs))
	for i, doc := range docs {
		delete(doc, "_id")
		records[i] = store.Record(doc)
	}
	return records, nil
}

// Upsert implements store.RemoteStore.
func (s *Store) Upsert(ctx context.Context, collection string, filter store.Record, record store.Record) error {
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		toBSON(filter),
		bson.M{"$set": toBSON(record)},
		options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr("upsert", collection, err)
	}
	return nil
}

// Remove implements store.RemoteStore.
func (s *Store) Remove(ctx context.Context, collection string, filter store.Record) error {
	_, err := s.db.Collection(collection).DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return wrapErr("remove", collection, err)
	}
	return nil
}

func toBSON(record store.Record) bson.M {
	doc := make(bson.M, len(record))
	for k, v := range record {
		doc[k] = v
	}
	return doc
}

// wrapErr classifies driver failures. Anything that smells like lost
// connectivity maps to store.ErrUnavailable so the progress service can
// trust local data instead of failing the session.
func wrapErr(op, collection string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s %s: %v", store.ErrUnavailable, op, collection, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, collection, err)
}
