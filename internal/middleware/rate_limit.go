package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/deppfellow/base-api/internal/errs"
	"github.com/deppfellow/base-api/internal/server"
)

const (
	// rateLimitKeyPrefix namespaces the Redis counters.
	rateLimitKeyPrefix = "base-api:rate_limit"

	// redisStoreTimeout bounds a single counter round trip.
	redisStoreTimeout = 100 * time.Millisecond

	// memoryStoreExpiry drops idle per-client limiters.
	memoryStoreExpiry = 3 * time.Minute
)

// RateLimitMiddleware throttles requests per client IP.
type RateLimitMiddleware struct {
	server *server.Server
}

// NewRateLimitMiddleware constructs the rate limiter bundle.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Enabled reports whether server.rate_limit.requests_per_second is set.
func (r *RateLimitMiddleware) Enabled() bool {
	return r.server.Config.Server.RateLimit.RequestsPerSecond > 0
}

// Limit returns Echo's rate limiter keyed by client IP.
//
// With Redis configured the counters live there so every instance shares
// them; otherwise an in-memory token bucket per client is used. Denied
// requests become 429 and a RateLimitHit event.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	if !r.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store(),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.New(echo.ErrForbidden.Code, "unable to identify client", nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			return errs.NewTooManyRequestsError()
		},
	})
}

func (r *RateLimitMiddleware) store() middleware.RateLimiterStore {
	cfg := r.server.Config.Server.RateLimit

	if r.server.Redis != nil {
		return newRedisStore(r.server.Redis, r.server.Logger, cfg.RequestsPerSecond)
	}

	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.Burst,
		ExpiresIn: memoryStoreExpiry,
	})
}

// RecordRateLimitHit records a New Relic custom event for a denied request.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}

// redisStore is a fixed one-second window counter shared through Redis.
//
// Redis errors fail open: the request is allowed and the error logged.
type redisStore struct {
	client *redis.Client
	logger *zerolog.Logger
	limit  int64
	now    func() time.Time
}

func newRedisStore(client *redis.Client, logger *zerolog.Logger, requestsPerSecond float64) *redisStore {
	return &redisStore{
		client: client,
		logger: logger,
		limit:  int64(math.Max(1, math.Ceil(requestsPerSecond))),
		now:    time.Now,
	}
}

func (s *redisStore) key(identifier string) string {
	return fmt.Sprintf("%s:%s:%d", rateLimitKeyPrefix, identifier, s.now().Unix())
}

// Allow implements middleware.RateLimiterStore.
func (s *redisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisStoreTimeout)
	defer cancel()

	key := s.key(identifier)

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("rate limit store unavailable, allowing request")
		return true, nil
	}

	return count.Val() <= s.limit, nil
}
