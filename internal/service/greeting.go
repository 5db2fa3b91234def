package service

import (
	"fmt"
	"strings"

	"github.com/deppfellow/base-api/internal/server"
)

// DefaultGreetingName is greeted when the caller gives no name.
const DefaultGreetingName = "World"

// Greeting is the body of a successful greeting.
type Greeting struct {
	Message string `json:"message"`
}

// GreetingService builds greetings.
type GreetingService struct {
	server *server.Server
}

// NewGreetingService constructs a GreetingService.
func NewGreetingService(s *server.Server) *GreetingService {
	return &GreetingService{server: s}
}

// Greeting returns "Hello <name>!", or "Hello World!" for a blank name.
func (s *GreetingService) Greeting(name string) Greeting {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultGreetingName
	}

	return Greeting{Message: fmt.Sprintf("Hello %s!", name)}
}
