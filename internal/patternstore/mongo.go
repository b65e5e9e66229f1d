package patternstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures the MongoDB-backed pattern-library source
// (spec.md §6.1: "documents keyed by (type, term, subtype?)").
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoSource reads PatternRecord documents from a MongoDB collection.
// It is the Source the API service loads from; the CLI can read a
// local file through FileSource instead, and tests use an in-memory
// fake (see store_test.go).
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
	timeout time.Duration
}

// NewMongoSource connects to MongoDB and returns a Source over the
// configured collection. The connection is verified with a Ping so that
// Store.Load's "unreachable at load" failure semantics (spec.md §4.1)
// surface here rather than on the first query.
func NewMongoSource(ctx context.Context, cfg MongoConfig) (*MongoSource, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrStoreUnreachable, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", ErrStoreUnreachable, err)
	}

	return &MongoSource{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: timeout,
	}, nil
}

// FetchAll returns every document in the collection regardless of its
// active flag; Store.Load applies the active filter so that toggling a
// record off requires no index rebuild on the Mongo side.
func (m *MongoSource) FetchAll(ctx context.Context) ([]Record, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cur, err := m.coll.Find(fetchCtx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrStoreUnreachable, err)
	}
	defer cur.Close(fetchCtx)

	var records []Record
	if err := cur.All(fetchCtx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrStoreUnreachable, err)
	}
	return records, nil
}

// Close disconnects the underlying Mongo client.
func (m *MongoSource) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
