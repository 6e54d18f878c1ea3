package user

import (
	"context"
	"fmt"

	"github.com/mkrupp/todo-auth/internal/domain"
)

// Repository defines the credential store used by the auth service.
type Repository interface {
	// FindByUsername retrieves a user by username.
	// Returns nil and false without an error if no such user exists.
	FindByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// FindByID retrieves a user by ID.
	// Returns nil and false without an error if no such user exists.
	FindByID(ctx context.Context, id string) (*domain.User, bool, error)

	// Insert creates a user with a fresh ID. The username must be unique; a
	// concurrent or repeated insert of the same username fails with
	// domain.ErrUserAlreadyExists and leaves the store unchanged.
	Insert(ctx context.Context, username, passwordHash string) (*domain.User, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// Driver selects the Repository implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// RepositoryConfig selects and configures the credential store.
type RepositoryConfig struct {
	// Driver is one of "sqlite", "postgres" or "memory"
	Driver string `env:"DRIVER" default:"sqlite"`

	SQLite   SQLiteUserRepositoryConfig
	Postgres PostgresUserRepositoryConfig
}

// NewRepositoryFactory returns the factory for the configured driver.
func NewRepositoryFactory(cfg RepositoryConfig) (RepositoryFactory, error) {
	switch Driver(cfg.Driver) {
	case DriverSQLite:
		return SQLiteUserRepositoryFactory(cfg.SQLite), nil
	case DriverPostgres:
		return PostgresUserRepositoryFactory(cfg.Postgres), nil
	case DriverMemory:
		return func(context.Context) (Repository, error) {
			return NewMemoryUserRepository(), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
