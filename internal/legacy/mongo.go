package legacy

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ConnectTimeout bounds the initial ping
const ConnectTimeout = 10 * time.Second

// MongoSource reads collections from a MongoDB database
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens uri and selects database name. The server is pinged so a
// bad URI fails here rather than on the first collection.
func Connect(ctx context.Context, uri, name string) (*MongoSource, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoSource{client: client, db: client.Database(name)}, nil
}

// Each calls fn for every document in collection, in natural order
func (m *MongoSource) Each(ctx context.Context, collection string, fn func(bson.Raw) error) error {
	cursor, err := m.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		if err := fn(cursor.Current); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// Close disconnects the client
func (m *MongoSource) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
