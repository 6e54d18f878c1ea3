package user

import (
	"fmt"

	"github.com/google/uuid"
)

// newUserID returns a time-ordered UUIDv7 string.
func newUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new uuid: %w", err)
	}

	return id.String(), nil
}
