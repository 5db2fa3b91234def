package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/server"
	"github.com/deppfellow/base-api/internal/service"
	"github.com/deppfellow/base-api/internal/validation"
)

// GreetingHandler is the named controller behind "/" and "/v1/".
type GreetingHandler struct {
	Handler
	greeting *service.GreetingService
}

// NewGreetingHandler constructs a GreetingHandler.
func NewGreetingHandler(s *server.Server, greeting *service.GreetingService) *GreetingHandler {
	return &GreetingHandler{
		Handler:  NewHandler(s),
		greeting: greeting,
	}
}

// SayHiRequest is the optional input of SayHi.
type SayHiRequest struct {
	Name string `query:"name" validate:"omitempty,max=64,printascii"`
}

func (r *SayHiRequest) Validate() error {
	return validation.Struct(r)
}

// NewSayHiRequest allocates an empty SayHiRequest.
func NewSayHiRequest() *SayHiRequest {
	return &SayHiRequest{}
}

// NewEmptyRequest allocates an EmptyRequest.
func NewEmptyRequest() *EmptyRequest {
	return &EmptyRequest{}
}

// SayHi answers {"message":"Hello World!"}, or greets ?name= when given.
func (h *GreetingHandler) SayHi(c echo.Context, req *SayHiRequest) (service.Greeting, error) {
	return h.greeting.Greeting(req.Name), nil
}

// Hello answers the plain text "Hello World!".
func (h *GreetingHandler) Hello(c echo.Context, _ *EmptyRequest) (string, error) {
	return h.greeting.Greeting("").Message, nil
}
