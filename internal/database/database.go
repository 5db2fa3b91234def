// Package database contains the logic for establishing
// the connection behind the configured database URI.
//
// The URI scheme selects the driver:
//   - postgres:// and postgresql:// open a pgx connection pool
//     with query tracing (pgx tracelog, New Relic nrpgx5)
//   - mongodb:// and mongodb+srv:// open a MongoDB client
//
// The application only opens, pings, health checks and closes the
// connection; it performs no queries of its own.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deppfellow/base-api/internal/config"
	loggerConfig "github.com/deppfellow/base-api/internal/logger"
)

// Kind names a supported database driver.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMongo    Kind = "mongodb"
)

// ErrUnsupportedScheme is returned for URIs no driver understands.
var ErrUnsupportedScheme = errors.New("unsupported database uri scheme")

// Driver is the minimal surface the application needs from a connection.
type Driver interface {
	Kind() Kind
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Database wraps the active driver and a logger.
// It is the object passed around the app as the connection handle.
type Database struct {
	driver Driver
	log    *zerolog.Logger
}

// KindFromURI resolves the driver kind from the URI scheme.
func KindFromURI(uri string) (Kind, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse database uri: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "mongodb", "mongodb+srv":
		return KindMongo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}
}

// New opens the connection described by cfg.Database.URI and pings it.
//
// The ping is bounded by cfg.Database.ConnectTimeout so start-up fails
// fast when the database is unreachable. On failure every resource opened
// so far is released.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	kind, err := KindFromURI(cfg.Database.URI)
	if err != nil {
		return nil, err
	}

	var driver Driver
	switch kind {
	case KindPostgres:
		driver, err = newPostgres(ctx, cfg, logger, loggerService)
	case KindMongo:
		driver, err = newMongo(cfg)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	if err := driver.Ping(pingCtx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("driver", string(kind)).Msg("connected to the database")

	return Wrap(driver, logger), nil
}

// Wrap builds a Database around an already opened driver.
func Wrap(driver Driver, logger *zerolog.Logger) *Database {
	return &Database{
		driver: driver,
		log:    logger,
	}
}

// Kind reports which driver backs the connection.
func (db *Database) Kind() Kind {
	return db.driver.Kind()
}

// Ping verifies the connection is usable.
func (db *Database) Ping(ctx context.Context) error {
	return db.driver.Ping(ctx)
}

// Close releases the connection.
func (db *Database) Close(ctx context.Context) error {
	db.log.Info().Str("driver", string(db.driver.Kind())).Msg("closing database connection")
	return db.driver.Close(ctx)
}
