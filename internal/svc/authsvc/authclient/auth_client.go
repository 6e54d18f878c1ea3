package authclient

import (
	"context"

	"github.com/mkrupp/todo-auth/internal/domain"
)

// AuthClient is a client of the authentication API.
type AuthClient interface {
	// Register creates an account and returns its token.
	Register(ctx context.Context, username, password string) (string, error)

	// Login returns a token for valid credentials.
	Login(ctx context.Context, username, password string) (string, error)

	// Validate checks token with the service and returns its subject and expiry.
	Validate(ctx context.Context, token string) (domain.ValidateResponse, error)

	// Me returns the user that owns token.
	Me(ctx context.Context, token string) (domain.UserResponse, error)
}
