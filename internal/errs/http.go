package errs

import (
	"net/http"
)

// RouteNotFoundMessage is the body message of the Not-Found responder.
const RouteNotFoundMessage = "route not found"

// New creates an HTTPError with an explicit status, message and optional data.
func New(status int, message string, data any) *HTTPError {
	return &HTTPError{
		Status:  status,
		Message: message,
		Data:    data,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// data is optional; validation failures pass their []FieldError here.
func NewBadRequestError(message string, data any) *HTTPError {
	return New(http.StatusBadRequest, message, data)
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return New(http.StatusNotFound, message, nil)
}

// NewRouteNotFoundError is the error form of the Not-Found responder's reply.
func NewRouteNotFoundError() *HTTPError {
	return NewNotFoundError(RouteNotFoundMessage)
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError() *HTTPError {
	return New(http.StatusTooManyRequests, "too many requests", nil)
}

// NewServiceUnavailableError creates a 503 Service Unavailable HTTPError.
func NewServiceUnavailableError(message string) *HTTPError {
	return New(http.StatusServiceUnavailable, message, nil)
}

// NewInternalServerError creates a 500 HTTPError carrying message.
//
// Unlike the other constructors the message usually comes from an
// unrecognised error and is surfaced to the client as-is.
func NewInternalServerError(message string) *HTTPError {
	if message == "" {
		message = http.StatusText(http.StatusInternalServerError)
	}
	return New(http.StatusInternalServerError, message, nil)
}

// ValidationError converts validation failures into a 400 HTTPError.
func ValidationError(fieldErrors []FieldError) *HTTPError {
	return NewBadRequestError("Validation failed", fieldErrors)
}
