package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/errs"
)

// JSONBodyKey is the Echo context key of the parsed request document.
const JSONBodyKey = "json_body"

// JSONBody parses JSON request bodies.
//
// For requests with a JSON content type and a non-empty body it checks
// the document is well formed, stores it under JSONBodyKey and restores
// the body so handlers can still c.Bind it. Malformed documents are
// rejected with 400 "invalid JSON body". Size is bounded by BodyLimit,
// which must run first.
func JSONBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get(echo.HeaderContentType)) {
				return next(c)
			}

			raw, err := io.ReadAll(req.Body)
			if err != nil {
				// BodyLimit reports oversize bodies through the reader.
				return err
			}
			_ = req.Body.Close()
			req.Body = io.NopCloser(bytes.NewReader(raw))

			if len(bytes.TrimSpace(raw)) == 0 {
				return next(c)
			}

			if !json.Valid(raw) {
				return errs.NewBadRequestError("invalid JSON body", nil)
			}

			c.Set(JSONBodyKey, json.RawMessage(raw))

			return next(c)
		}
	}
}

// GetJSONBody returns the document stored by JSONBody, or nil.
func GetJSONBody(c echo.Context) json.RawMessage {
	if body, ok := c.Get(JSONBodyKey).(json.RawMessage); ok {
		return body
	}
	return nil
}

// isJSON matches application/json and any +json media type.
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == echo.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}
