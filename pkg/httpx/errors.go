package httpx

import "net/http"

// APIError is the stable wire shape for error responses. Code is a
// machine-readable identifier that clients may branch on; Description is
// for humans and may change between releases.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// WriteError writes the error as a JSON response with its status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.Status, e)
}

// Canonical error responses. Handlers map service errors onto these rather
// than inventing ad-hoc bodies.
var (
	ErrInvalidRequest = &APIError{
		Code:        "invalid_request",
		Description: "The request body is missing or malformed.",
		Status:      http.StatusBadRequest,
	}
	ErrInvalidCredentials = &APIError{
		Code:        "invalid_credentials",
		Description: "Unknown username or wrong password.",
		Status:      http.StatusUnauthorized,
	}
	ErrInvalidClient = &APIError{
		Code:        "invalid_client",
		Description: "Unknown client id or wrong client secret.",
		Status:      http.StatusUnauthorized,
	}
	ErrRefreshTokenNotFound = &APIError{
		Code:        "refresh_token_not_found",
		Description: "The refresh token is unknown, expired or already rotated.",
		Status:      http.StatusNotFound,
	}
	ErrNotFound = &APIError{
		Code:   "not_found",
		Status: http.StatusNotFound,
	}
	ErrSessionExpired = &APIError{
		Code:        "session_expired",
		Description: "The session could not be refreshed and has been cleared.",
		Status:      http.StatusUnauthorized,
	}
	ErrServerError = &APIError{
		Code:   "server_error",
		Status: http.StatusInternalServerError,
	}
)
