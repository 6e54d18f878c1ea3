package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAuthToken is returned when the Authorization header is missing.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrMalformedAuthHeader is returned when the Authorization header does not use the Bearer scheme.
	ErrMalformedAuthHeader = errors.New("malformed authorization header")
	// ErrInvalidAuthToken is the parent of all token verification failures.
	ErrInvalidAuthToken = errors.New("invalid auth token")
	// ErrUnauthorized is returned by the authorizing middleware when a presented token is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenMalformed is returned when a token cannot be parsed.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidAuthToken)
	// ErrTokenInvalidSignature is returned when a token signature does not match the signing key.
	ErrTokenInvalidSignature = fmt.Errorf("%w: invalid signature", ErrInvalidAuthToken)
	// ErrTokenExpired is returned when a token's expiry is not after the verification time.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidAuthToken)
	// ErrInvalidClaims is returned when claims cannot be issued, e.g. expiry not after issuance.
	ErrInvalidClaims = errors.New("invalid claims")
)

// Claims is the payload carried by an auth token.
type Claims struct {
	Subject   string // User.ID of the authenticated user
	IssuedAt  int64  // Unix timestamp when the token was created
	ExpiresAt int64  // Unix timestamp when the token expires
}

// AuthTokenResponse represents a response containing an authentication token.
type AuthTokenResponse struct {
	Token string `json:"token"`
}

// ValidateResponse is returned by the token validation endpoint.
type ValidateResponse struct {
	Subject   string `json:"subject"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
