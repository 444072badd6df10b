// Package mongostore provides the MongoDB document sink.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// SinkName identifies this sink in logs and metrics.
const SinkName = "mongodb"

// Config holds the connection parameters for the document collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type inserter interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type disconnecter interface {
	Disconnect(ctx context.Context) error
}

// Store inserts each record as its own document. No uniqueness is enforced.
type Store struct {
	coll   inserter
	client disconnecter
}

// Connect dials the server and pings the primary before returning.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo.uri is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("mongo database and collection are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		client: client,
	}, nil
}

// NewWithCollection wraps an existing collection handle (primarily for testing).
func NewWithCollection(coll inserter) *Store {
	return &Store{coll: coll}
}

// Name implements crawler.Sink.
func (s *Store) Name() string { return SinkName }

// Write inserts record as a new document.
func (s *Store) Write(ctx context.Context, record crawler.Record) error {
	if s == nil || s.coll == nil {
		return fmt.Errorf("document store is not configured")
	}
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}
