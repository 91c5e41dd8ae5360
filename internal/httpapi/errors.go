package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
)

// APIError is the JSON error body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

// toAPIError maps pipeline errors to responses. Unknown errors are hidden
// behind a generic message.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, dashboard.ErrRoleNotFound):
		return newAPIError(http.StatusNotFound, "ROLE_NOT_FOUND", "Role not found")
	case errors.Is(err, dashboard.ErrInvalidParameter):
		return newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	}
}
