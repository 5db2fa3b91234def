package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/base-api/internal/dberr"
	"github.com/deppfellow/base-api/internal/errs"
	"github.com/deppfellow/base-api/internal/server"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
//
// It keeps a pointer to the application container so every middleware
// can read config values (CORS origins, body limit, timeouts, env).
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware configured by server.cors_allowed_origins.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// BodyLimit rejects bodies larger than server.body_limit with 413.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(global.server.Config.Server.BodyLimit)
}

// Timeout bounds the request context by server.request_timeout.
//
// Handlers that honour ctx and stop on the deadline surface as 503.
// A zero timeout disables it.
func (global *GlobalMiddlewares) Timeout() echo.MiddlewareFunc {
	timeout := global.server.Config.Server.RequestTimeout
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return errs.NewServiceUnavailableError("request timed out")
			}
			return err
		},
	})
}

// RequestLogger returns Echo's request logger middleware with a zerolog
// LogValuesFunc producing one "API" line per request, with severity based
// on status.
// responseStatus is the status the client will receive.
// When a handler returns an error the error handler has not written the
// response yet, so the recorded status would still read 200.
// Reference: https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
func responseStatus(written int, err error) int {
	if err != nil {
		return Normalize(err).StatusCode()
	}
	return written
}

func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := responseStatus(v.Status, v.Error)

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover returns Echo's panic recovery middleware.
//
// The panic and its stack go to the request logger; the client only
// sees a generic 500.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Str("stack", string(stack)).
				Msg("recovered from panic")
			return errs.NewInternalServerError("")
		},
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// Normalize converts any error a handler or middleware returned into the
// HTTPError that is written to the client.
//
// Classification order:
//  1. echo's route-not-found and method-not-allowed -> 404 "route not found"
//  2. *errs.HTTPError -> as is
//  3. *echo.HTTPError (body limit, bind, ...) -> its code and message
//  4. database driver errors known to dberr -> translated
//  5. anything else -> 500 with the error's own message
func Normalize(err error) *errs.HTTPError {
	if err == nil {
		return errs.NewInternalServerError("")
	}

	if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return errs.NewRouteNotFoundError()
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) && echoErr != nil {
		return errs.New(echoErr.Code, echoMessage(echoErr), nil)
	}

	if translated, ok := dberr.Translate(err); ok {
		return translated
	}

	return errs.NewInternalServerError(err.Error())
}

// echoMessage normalizes echo's `any` message to a string.
func echoMessage(echoErr *echo.HTTPError) string {
	switch msg := echoErr.Message.(type) {
	case string:
		return msg
	case error:
		return msg.Error()
	default:
		return http.StatusText(echoErr.Code)
	}
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Every error returned by a handler or middleware ends up here. It logs the
// original error with the request-scoped logger, then writes
// `status {"message": ..., "data": ...}` unless a response was already
// committed. It never panics and never retries.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	logger := GetLogger(c)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("error handler panicked")
		}
	}()

	httpErr := Normalize(err)
	status := httpErr.StatusCode()

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}
	event.
		Err(err).
		Int("status", status).
		Str("error_code", httpErr.Code()).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, httpErr.Response())
	}
	if writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}
