package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkrupp/todo-auth/internal/domain"
)

const contentTypeJSON = "application/json"

// Client-facing error messages. They never carry wrapped error detail.
const (
	MessageInvalidRequest     = "invalid request"
	MessageMissingAuth        = "missing authorization header"
	MessageMalformedAuth      = "malformed authorization header"
	MessageUnauthorized       = "unauthorized"
	MessageInvalidCredentials = "invalid credentials"
	MessageUserNotFound       = "user not found"
	MessageUsernameTaken      = "username taken"
	MessageInternal           = "internal server error"
)

// ErrorStatus maps an error to its HTTP status and client-facing message.
// Errors of unknown kind map to 500.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, MessageInvalidRequest
	case errors.Is(err, domain.ErrNoAuthToken):
		return http.StatusUnauthorized, MessageMissingAuth
	case errors.Is(err, domain.ErrMalformedAuthHeader):
		return http.StatusUnauthorized, MessageMalformedAuth
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidAuthToken):
		return http.StatusUnauthorized, MessageUnauthorized
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, MessageInvalidCredentials
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, MessageUserNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, MessageUsernameTaken
	default:
		return http.StatusInternalServerError, MessageInternal
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	//nolint:wrapcheck
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err and returns the status used.
func WriteError(w http.ResponseWriter, err error) int {
	status, message := ErrorStatus(err)

	_ = WriteJSON(w, status, domain.ErrorResponse{Success: false, Message: message})

	return status
}
