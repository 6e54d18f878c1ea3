package user

import "errors"

var (
	// ErrUnknownDriver is returned for an unsupported repository driver.
	ErrUnknownDriver = errors.New("unknown user repository driver")
	// ErrNoDatabaseURL is returned when the postgres driver is selected without a connection string.
	ErrNoDatabaseURL = errors.New("no database url")
)
