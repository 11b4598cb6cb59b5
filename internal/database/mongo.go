package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mediaapi/internal/config"
)

const defaultMongoCollection = "media"

// NewMongo connects to MongoDB and returns the client together with the
// configured media collection.
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Client, *mongo.Collection, error) {
	if c.URI == "" || c.Database == "" {
		return nil, nil, fmt.Errorf("invalid mongo config: uri and database are required")
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(c.URI).
		SetAppName(ApplicationName))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	if err := pingWithin(ctx, ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	collection := c.Collection
	if collection == "" {
		collection = defaultMongoCollection
	}
	return client, client.Database(c.Database).Collection(collection), nil
}
