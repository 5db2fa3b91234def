package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/errs"
)

// NotFound is the terminal handler for requests no route matched.
//
// It always answers 404 {"message":"route not found"}.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, errs.NewRouteNotFoundError().Response())
}
