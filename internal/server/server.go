// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the start-up sequence of the HTTP server and
// handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database connection
//   - optional redis client
//   - http.Server
//
// The database connection is opened only after the router is fully
// assembled, and the listener binds only after the connection succeeded.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/base-api/internal/config"
	"github.com/deppfellow/base-api/internal/database"
	loggerPkg "github.com/deppfellow/base-api/internal/logger"
)

var (
	// ErrInvalidTransition is returned for out-of-order lifecycle steps.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrNotReady is returned by Start when the database is not connected.
	ErrNotReady = errors.New("server not ready: database not connected")

	// ErrHTTPServerNotInitialized is returned by Start before SetupHTTPServer.
	ErrHTTPServerNotInitialized = errors.New("HTTP server not initialized")
)

// RedisPingTimeout bounds the start-up Redis ping.
const RedisPingTimeout = 5 * time.Second

// ConnectFunc opens the database connection.
type ConnectFunc func(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*database.Database, error)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds:
//   - the config
//   - the logger(s)
//   - database and redis connections
//   - an internal *http.Server used to listen and serve requests
type Server struct {
	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService holds the optional New Relic application.
	LoggerService *loggerPkg.LoggerService

	// DB is nil until Connect succeeds.
	DB *database.Database

	// Redis is nil unless redis.address is configured.
	Redis *redis.Client

	httpServer *http.Server
	listenAddr net.Addr
	connect    ConnectFunc

	mu    sync.Mutex
	state State
}

// New constructs a Server in the Init state.
//
// It does NOT open the database; Connect does that once the router is
// mounted. Redis is optional: a failed ping is logged and start-up continues.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("server: config and logger are required")
	}

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		connect:       database.New,
		state:         StateInit,
	}

	if cfg.Redis.Address != "" {
		server.Redis = newRedisClient(cfg, logger, loggerService)
	}

	return server, nil
}

func newRedisClient(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *redis.Client {
	// Redis connections are lazy; NewClient does not dial.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to Redis, continuing without it")
	}

	return redisClient
}

// Connect opens the database connection (Connecting state).
//
// A failure moves the server to Failed and is not retried.
func (s *Server) Connect(ctx context.Context) error {
	if err := s.Advance(StateConnecting); err != nil {
		return err
	}

	s.Logger.Info().Msg("connecting to the database")

	db, err := s.connect(ctx, s.Config, s.Logger, s.LoggerService)
	if err != nil {
		return s.fail(fmt.Errorf("failed to initialize database: %w", err), "database connection failed")
	}

	s.mu.Lock()
	s.DB = db
	s.mu.Unlock()

	return nil
}

// SetupHTTPServer configures the internal net/http server.
//
// handler is the fully assembled echo instance.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start binds the listener and serves requests (Listening state).
//
// It refuses to bind unless Connect succeeded. A bind failure moves the
// server to Failed. Serve blocks until Shutdown, returning http.ErrServerClosed.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return ErrHTTPServerNotInitialized
	}

	s.mu.Lock()
	connected := s.DB != nil && s.state == StateConnecting
	s.mu.Unlock()
	if !connected {
		return ErrNotReady
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return s.fail(fmt.Errorf("failed to bind %s: %w", s.httpServer.Addr, err), "server error")
	}

	s.mu.Lock()
	s.listenAddr = ln.Addr()
	s.mu.Unlock()

	if err := s.Advance(StateListening); err != nil {
		_ = ln.Close()
		return err
	}

	s.Logger.Info().
		Str("addr", ln.Addr().String()).
		Str("env", s.Config.Primary.Env).
		Msg("server started")

	return s.httpServer.Serve(ln)
}

// ListenAddr returns the bound address, or nil before Listening.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Shutdown gracefully shuts down the server and its dependencies.
//
// It stops the HTTP server (in-flight requests finish until ctx expires),
// then closes the database, redis and New Relic, in that order. Every
// step runs; errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	s.mu.Lock()
	db := s.DB
	s.mu.Unlock()

	if db != nil {
		if err := db.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	s.LoggerService.Shutdown()

	return errors.Join(errs...)
}
