package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/base-api/internal/config"
	"github.com/deppfellow/base-api/internal/errs"
	"github.com/deppfellow/base-api/internal/handler"
	loggerPkg "github.com/deppfellow/base-api/internal/logger"
	"github.com/deppfellow/base-api/internal/server"
	"github.com/deppfellow/base-api/internal/service"
	"github.com/deppfellow/base-api/internal/validation"
)

func newHandlers(t *testing.T) *handler.Handlers {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.URI = "mongodb://localhost:27017/base"

	logger := zerolog.Nop()
	s, err := server.New(cfg, &logger, loggerPkg.NewLoggerService(cfg.Observability))
	require.NoError(t, err)

	services, err := service.NewService(s)
	require.NoError(t, err)

	return handler.NewHandlers(s, services)
}

// serve runs h directly; a returned error is not rendered.
func serve(t *testing.T, h echo.HandlerFunc, target string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	return rec, h(c)
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	rec, err := serve(t, handler.NotFound, "/anything")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"route not found"}`, rec.Body.String())
}

func TestGreetingHandler_Hello(t *testing.T) {
	t.Parallel()

	h := newHandlers(t)
	rec, err := serve(t, handler.HandleText(h.Greeting.Handler, h.Greeting.Hello, http.StatusOK, handler.NewEmptyRequest), "/")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World!", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain)
}

func TestGreetingHandler_SayHi(t *testing.T) {
	t.Parallel()

	h := newHandlers(t)
	sayHi := handler.Handle(h.Greeting.Handler, h.Greeting.SayHi, http.StatusOK, handler.NewSayHiRequest)

	rec, err := serve(t, sayHi, "/v1/?name=Grace")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hello Grace!"}`, rec.Body.String())

	// A fresh payload per request: the previous name must not leak.
	rec, err = serve(t, sayHi, "/v1/")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hello World!"}`, rec.Body.String())
}

type strictRequest struct {
	ID string `query:"id" validate:"required"`
}

func (r *strictRequest) Validate() error {
	return validation.Struct(r)
}

func TestHandle_ValidationStopsHandler(t *testing.T) {
	t.Parallel()

	called := false
	h := handler.Handle(handler.Handler{}, func(c echo.Context, req *strictRequest) (map[string]string, error) {
		called = true
		return map[string]string{"id": req.ID}, nil
	}, http.StatusCreated, func() *strictRequest { return &strictRequest{} })

	_, err := serve(t, h, "/")
	assert.False(t, called)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, []errs.FieldError{{Field: "id", Error: "is required"}}, httpErr.Data)

	rec, err := serve(t, h, "/?id=42")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}
