package source

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kingxl111/search-engine/pkg/config"
)

// MongoSource streams crawled pages from a MongoDB collection.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoPage struct {
	Title   string `bson:"title"`
	URL     string `bson:"url"`
	Content string `bson:"content"`
}

// NewMongoSource connects to MongoDB and verifies the connection.
func NewMongoSource(ctx context.Context, cfg config.MongoConfig) (*MongoSource, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &MongoSource{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Stream walks the whole collection and emits each page.
func (s *MongoSource) Stream(ctx context.Context, emit func(title, url, content string) error) error {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("querying pages: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var page mongoPage
		if err := cursor.Decode(&page); err != nil {
			return fmt.Errorf("decoding page: %w", err)
		}
		if err := emit(page.Title, page.URL, page.Content); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterating pages: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
