package service

import (
	"github.com/deppfellow/base-api/internal/server"
)

// Services is a container that groups all business services.
type Services struct {
	Greeting *GreetingService
}

// NewService constructs the service container.
func NewService(s *server.Server) (*Services, error) {
	return &Services{
		Greeting: NewGreetingService(s),
	}, nil
}
