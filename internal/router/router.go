// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers. Assembly runs
// as an ordered Pipeline so the fallbacks are always mounted after
// every route.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/handler"
	"github.com/deppfellow/base-api/internal/server"
)

// NewRouter builds the fully assembled echo instance.
//
// The server must be in the Init state; it leaves in FallbacksMounted.
func NewRouter(s *server.Server, h *handler.Handlers) (*echo.Echo, error) {
	return NewPipeline(s, h).Build()
}
