package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned by a repository when an insert violates
	// the unique username constraint.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	// Unknown usernames and wrong passwords both map to this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when registering a username that is already in use.
	ErrUsernameTaken = errors.New("username taken")
	// ErrValidation is returned when a request body is malformed or fails validation.
	ErrValidation = errors.New("validation failed")
	// ErrStorage is returned when the credential store fails or times out.
	ErrStorage = errors.New("storage failure")
)

// User represents a registered account as persisted by the credential store.
type User struct {
	ID           string // UUIDv7, stable and unique
	Username     string // Login username, unique
	PasswordHash string // PHC-encoded password hash
	CreatedAt    int64  // Unix timestamp of account creation
}

// UserResponse is the public representation of a User.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

// Response converts the user into its public representation, leaving out the hash.
func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// Credentials is the request body of the login and register endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}
