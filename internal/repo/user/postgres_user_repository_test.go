package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/todo-auth/internal/domain"
)

func newMockRepository(t *testing.T) (*PostgresUserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return newPostgresUserRepository(mock), mock
}

func TestPostgresUserRepository_Insert(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), "alice", "hash", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, err := repo.Insert(context.Background(), "alice", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestPostgresUserRepository_InsertDuplicate(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), "alice", "hash", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})

	_, err := repo.Insert(context.Background(), "alice", "hash")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestPostgresUserRepository_InsertFailure(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), "alice", "hash", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Insert(context.Background(), "alice", "hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestPostgresUserRepository_FindByUsername(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	rows := mock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
		AddRow("0190a0e4-0000-7000-8000-000000000001", "alice", "hash", int64(1700000000))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id::text, username, password_hash, created_at FROM users WHERE username = $1")).
		WithArgs("alice").
		WillReturnRows(rows)

	user, ok, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, &domain.User{
		ID:           "0190a0e4-0000-7000-8000-000000000001",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    1700000000,
	}, user)
}

func TestPostgresUserRepository_FindByIDNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id::text = $1")).
		WithArgs("missing").
		WillReturnRows(mock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

	user, ok, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestPostgresUserRepository_FindQueryError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("alice").
		WillReturnError(errors.New("timeout"))

	_, ok, err := repo.FindByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestPostgresUserRepository_Close(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectClose()

	require.NoError(t, repo.Close())
}
