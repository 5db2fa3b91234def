package handler

import (
	"github.com/deppfellow/base-api/internal/server"
	"github.com/deppfellow/base-api/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
//
// Router setup receives this one object instead of many.
type Handlers struct {
	Greeting *GreetingHandler // Greeting serves "/" and the v1 greeting.
	Health   *HealthHandler   // Health serves the /status endpoint.
	OpenAPI  *OpenAPIHandler  // OpenAPI serves the embedded API document.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Greeting: NewGreetingHandler(s, services.Greeting),
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
	}
}
