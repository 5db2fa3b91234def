package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/base-api/internal/config"
	"github.com/deppfellow/base-api/internal/database"
	"github.com/deppfellow/base-api/internal/errs"
	"github.com/deppfellow/base-api/internal/handler"
	loggerPkg "github.com/deppfellow/base-api/internal/logger"
	"github.com/deppfellow/base-api/internal/router"
	"github.com/deppfellow/base-api/internal/server"
	"github.com/deppfellow/base-api/internal/service"
)

type stubDriver struct {
	pingErr error
}

func (d *stubDriver) Kind() database.Kind { return database.KindPostgres }

func (d *stubDriver) Ping(context.Context) error { return d.pingErr }

func (d *stubDriver) Close(context.Context) error { return nil }

type fixture struct {
	server   *server.Server
	handlers *handler.Handlers
	echo     *echo.Echo
	logs     *bytes.Buffer
}

func newFixture(t *testing.T, driver database.Driver, mutate func(cfg *config.Config)) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.URI = "postgres://localhost:5432/base"
	if mutate != nil {
		mutate(cfg)
	}

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	s, err := server.New(cfg, &logger, loggerPkg.NewLoggerService(cfg.Observability))
	require.NoError(t, err)

	if driver != nil {
		s.DB = database.Wrap(driver, &logger)
	}

	services, err := service.NewService(s)
	require.NoError(t, err)
	h := handler.NewHandlers(s, services)

	e, err := router.NewRouter(s, h)
	require.NoError(t, err)

	return &fixture{server: s, handlers: h, echo: e, logs: logs}
}

func (f *fixture) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestPipeline_StageOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)
	p := router.NewPipeline(f.server, f.handlers)

	assert.Equal(t, []string{
		router.StageMiddleware,
		router.StageRoutes,
		router.StageNotFound,
		router.StageErrorNormalizer,
	}, p.Stages())
}

func TestNewRouter_AdvancesLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)
	assert.Equal(t, server.StateFallbacksMounted, f.server.State())

	// A second assembly on the same server is out of order.
	_, err := router.NewRouter(f.server, f.handlers)
	require.ErrorIs(t, err, server.ErrInvalidTransition)
}

func TestRoutes_Greeting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	rec := f.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World!", rec.Body.String())

	for _, target := range []string{"/v1/", "/v1"} {
		rec = f.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.JSONEq(t, `{"message":"Hello World!"}`, rec.Body.String(), target)
	}

	rec = f.do(http.MethodGet, "/v1/?name=Ada", nil)
	assert.JSONEq(t, `{"message":"Hello Ada!"}`, rec.Body.String())
}

func TestRoutes_GreetingValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	rec := f.do(http.MethodGet, "/v1/?name="+strings.Repeat("a", 65), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation failed","data":[{"field":"name","error":"must not exceed 64 characters"}]}`,
		rec.Body.String(),
	)
}

func TestRoutes_UnmatchedAlwaysRouteNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	tests := map[string]struct {
		method string
		target string
	}{
		"unknown path":              {method: http.MethodGet, target: "/nope"},
		"unknown nested path":       {method: http.MethodGet, target: "/a/b/c"},
		"unknown v1 path":           {method: http.MethodGet, target: "/v1/unknown"},
		"unregistered method":       {method: http.MethodPost, target: "/"},
		"unregistered method on v1": {method: http.MethodDelete, target: "/v1/"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := f.do(tc.method, tc.target, nil)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"message":"route not found"}`, rec.Body.String())
		})
	}
}

func TestRoutes_MalformedJSONBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	rec := f.do(http.MethodGet, "/v1/", strings.NewReader(`{"broken":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"invalid JSON body"}`, rec.Body.String())
}

func TestRoutes_ErrorNormalizerIsMounted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)
	f.echo.GET("/boom", func(c echo.Context) error {
		return errs.NewBadRequestError("bad input", map[string]string{"field": "name"})
	})
	f.echo.GET("/unset", func(c echo.Context) error {
		return &errs.HTTPError{Message: "no status"}
	})
	f.echo.GET("/plain", func(c echo.Context) error {
		return errors.New("something broke")
	})

	rec := f.do(http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"bad input","data":{"field":"name"}}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/unset", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"no status"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"something broke"}`, rec.Body.String())

	assert.Contains(t, f.logs.String(), "something broke")
}

func TestRoutes_OutOfRangeStatusBecomesInternalError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)
	f.echo.GET("/odd", func(c echo.Context) error { return errs.New(42, "bad input", nil) })
	f.echo.GET("/huge", func(c echo.Context) error { return errs.New(1000, "bad input", nil) })
	f.echo.GET("/neg", func(c echo.Context) error { return errs.New(-1, "bad input", nil) })

	for _, target := range []string{"/odd", "/huge", "/neg"} {
		t.Run(target, func(t *testing.T) {
			rec := f.do(http.MethodGet, target, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"message":"bad input"}`, rec.Body.String())
		})
	}
}

func TestRoutes_CORSPreflight(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRoutes_RequestIDAndSecureHeaders(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)

	rec := f.do(http.MethodGet, "/", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestSystemRoutes_Status(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &stubDriver{}, nil)
		rec := f.do(http.MethodGet, "/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "healthy", checks["database"].(map[string]any)["status"])
		assert.NotContains(t, checks, "redis")
	})

	t.Run("database down", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &stubDriver{pingErr: errors.New("connection reset")}, nil)
		rec := f.do(http.MethodGet, "/status", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body["status"])
		database := body["checks"].(map[string]any)["database"].(map[string]any)
		assert.Equal(t, "connection reset", database["error"])
	})

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil, nil)
		rec := f.do(http.MethodGet, "/status", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &stubDriver{}, func(cfg *config.Config) {
			cfg.Observability.HealthChecks.Enabled = false
		})
		rec := f.do(http.MethodGet, "/status", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"route not found"}`, rec.Body.String())
	})
}

func TestSystemRoutes_OpenAPIDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubDriver{}, nil)
	rec := f.do(http.MethodGet, "/docs/openapi.json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/v1/")
}
