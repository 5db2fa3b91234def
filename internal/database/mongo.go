package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/deppfellow/base-api/internal/config"
)

// mongoDriver is the MongoDB-backed Driver.
type mongoDriver struct {
	client *mongo.Client
}

func (m *mongoDriver) Kind() Kind {
	return KindMongo
}

// Ping asks the primary, the same server writes would go to.
func (m *mongoDriver) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *mongoDriver) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// clientOptions maps the database config onto driver options.
func clientOptions(cfg *config.Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.Database.URI).
		SetConnectTimeout(cfg.Database.ConnectTimeout).
		SetServerSelectionTimeout(cfg.Database.ConnectTimeout).
		SetMaxPoolSize(uint64(cfg.Database.MaxConns)).
		SetMinPoolSize(uint64(cfg.Database.MinConns))

	if cfg.Database.ConnMaxIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.Database.ConnMaxIdleTime)
	}

	return opts
}

// newMongo creates the client. The driver connects in the background;
// the caller pings to verify connectivity.
func newMongo(cfg *config.Config) (*mongoDriver, error) {
	client, err := mongo.Connect(clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &mongoDriver{client: client}, nil
}
