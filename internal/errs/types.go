package errs

import (
	"net/http"
	"strings"
)

// HTTPError is the error type handlers return instead of writing an
// error response themselves.
//
// Fields:
//   - Status: HTTP status code. Zero means "not set" and resolves to 500.
//   - Message: human-friendly message, sent to the client verbatim.
//   - Data: optional structured payload (field errors, ids, ...).
//     Omitted from the JSON body when nil.
type HTTPError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError.
//
// It only compares the type, not Status/Message, so
// errors.Is(err, &HTTPError{}) answers "is this one of ours?".
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// StatusCode returns the status to respond with.
// An absent or out-of-range status falls back to 500.
func (e *HTTPError) StatusCode() int {
	if e.Status < 100 || e.Status > 599 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Code returns a machine-friendly code derived from the status text,
// e.g. 400 -> "BAD_REQUEST". It is used for log fields only.
func (e *HTTPError) Code() string {
	return MakeUpperCaseWithUnderscores(http.StatusText(e.StatusCode()))
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Status:  e.Status,
		Message: message,
		Data:    e.Data,
	}
}

// WithData returns a copy of this HTTPError carrying data.
func (e *HTTPError) WithData(data any) *HTTPError {
	return &HTTPError{
		Status:  e.Status,
		Message: e.Message,
		Data:    data,
	}
}

// Response is the JSON body written for every error response.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response converts the error into its wire body.
func (e *HTTPError) Response() Response {
	return Response{
		Message: e.Message,
		Data:    e.Data,
	}
}

// FieldError represents a field-level validation error.
//
//	{ "field": "email", "error": "must be a valid email address" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// MakeUpperCaseWithUnderscores converts a string into UPPER_CASE_WITH_UNDERSCORES.
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
