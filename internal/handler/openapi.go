package handler

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/server"
)

//go:embed static/openapi.json
var openAPIDocument []byte

// OpenAPIHandler serves the OpenAPI document of the public routes.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler with access to shared dependencies.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIDocument writes the embedded OpenAPI JSON document.
//
// Cache-Control is set to "no-cache" so clients do not reuse old docs.
func (h *OpenAPIHandler) ServeOpenAPIDocument(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.JSONBlob(http.StatusOK, openAPIDocument); err != nil {
		return fmt.Errorf("failed to write OpenAPI document: %w", err)
	}

	return nil
}
