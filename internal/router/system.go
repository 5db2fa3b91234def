package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/handler"
	"github.com/deppfellow/base-api/internal/server"
)

// registerSystemRoutes registers "system" endpoints that are not part of business logic:
//  1. Health endpoint (when observability.health_checks.enabled)
//  2. OpenAPI document
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, s *server.Server) {
	if s.Config.Observability.HealthChecks.Enabled {
		r.GET("/status", h.Health.CheckHealth)
	}

	r.GET("/docs/openapi.json", h.OpenAPI.ServeOpenAPIDocument)
}
