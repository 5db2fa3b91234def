package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/handler"
)

// registerV1Routes mounts the versioned API under /v1.
func registerV1Routes(g *echo.Group, h *handler.Handlers) {
	sayHi := handler.Handle(h.Greeting.Handler, h.Greeting.SayHi, http.StatusOK, handler.NewSayHiRequest)

	g.GET("", sayHi)
	g.GET("/", sayHi)
}
