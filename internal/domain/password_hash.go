package domain

import "errors"

var (
	// ErrHashing is returned when a password hash cannot be computed.
	ErrHashing = errors.New("hashing failed")
	// ErrMalformedHash is returned when a stored password hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)
