package authsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/todo-auth/internal/domain"
	"github.com/mkrupp/todo-auth/internal/repo/user"
	"github.com/mkrupp/todo-auth/internal/svc/authsvc"
)

var errRepo = errors.New("repository error")

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	repo := user.NewMemoryUserRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	stored, ok, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.Subject)
	assert.Equal(t, time.Hour, time.Duration(claims.ExpiresAt-claims.IssuedAt)*time.Second)

	_, err = svc.Register(ctx, "alice", "another1")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.Equal(t, 1, repo.Len())
}

func TestAuthService_RegisterConcurrent(t *testing.T) {
	t.Parallel()

	const callers = 8

	repo := user.NewMemoryUserRepository()
	svc := newTestService(t, repo, nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens []string
		taken  int
	)

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			token, err := svc.Register(context.Background(), "bob", "secret1")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				tokens = append(tokens, token)
			case errors.Is(err, domain.ErrUsernameTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Len(t, tokens, 1)
	assert.Equal(t, callers-1, taken)
	assert.Equal(t, 1, repo.Len())
}

func TestAuthService_RegisterInsertRace(t *testing.T) {
	t.Parallel()

	// the lookup misses but the store rejects the insert
	svc := newTestService(t, &stubRepository{insertErr: domain.ErrUserAlreadyExists}, nil)

	_, err := svc.Register(context.Background(), "carol", "secret1")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	repo := user.NewMemoryUserRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	stored, _, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.Subject)
}

func TestAuthService_LoginFailuresIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, user.NewMemoryUserRepository(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice", "wrong-password")
	_, unknownUser := svc.Login(ctx, "mallory", "secret1")

	require.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownUser)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthService_InternalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		repo    *stubRepository
		call    func(ctx context.Context, svc *authsvc.AuthService) error
		wantErr []error
	}{
		{
			name: "login lookup fails",
			repo: &stubRepository{findErr: errRepo},
			call: func(ctx context.Context, svc *authsvc.AuthService) error {
				_, err := svc.Login(ctx, "alice", "secret1")

				return err
			},
			wantErr: []error{domain.ErrStorage, errRepo},
		},
		{
			name: "register insert fails",
			repo: &stubRepository{insertErr: errRepo},
			call: func(ctx context.Context, svc *authsvc.AuthService) error {
				_, err := svc.Register(ctx, "alice", "secret1")

				return err
			},
			wantErr: []error{domain.ErrStorage, errRepo},
		},
		{
			name: "stored hash malformed",
			repo: &stubRepository{findUser: &domain.User{ID: "id", Username: "alice", PasswordHash: "plain"}},
			call: func(ctx context.Context, svc *authsvc.AuthService) error {
				_, err := svc.Login(ctx, "alice", "secret1")

				return err
			},
			wantErr: []error{domain.ErrHashing, domain.ErrMalformedHash},
		},
		{
			name: "get user fails",
			repo: &stubRepository{findErr: errRepo},
			call: func(ctx context.Context, svc *authsvc.AuthService) error {
				_, err := svc.GetUser(ctx, "id")

				return err
			},
			wantErr: []error{domain.ErrStorage, errRepo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t, tt.repo, nil)

			err := tt.call(context.Background(), svc)
			for _, want := range tt.wantErr {
				require.ErrorIs(t, err, want)
			}

			assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_HashingCancelled(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, user.NewMemoryUserRepository(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Register(ctx, "alice", "secret1")
	require.ErrorIs(t, err, domain.ErrHashing)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAuthService_TokenExpires(t *testing.T) {
	t.Parallel()

	clk := newClock()
	svc := newTestService(t, user.NewMemoryUserRepository(), clk)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)

	_, err = svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	clk.Advance(time.Minute)

	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAuthService_GetUser(t *testing.T) {
	t.Parallel()

	repo := user.NewMemoryUserRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	found, err := svc.GetUser(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	_, err = svc.GetUser(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestNewAuthService(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.Hasher = testHasherConfig
	cfg.Pool = authsvc.HashingPoolConfig{Workers: 1, QueueSize: 1}

	factory := func(context.Context) (user.Repository, error) {
		return user.NewMemoryUserRepository(), nil
	}

	_, err := authsvc.NewAuthService(context.Background(), factory, cfg)
	require.ErrorIs(t, err, authsvc.ErrNoSigningKey)

	cfg.SigningKey = string(testKey)

	svc, err := authsvc.NewAuthService(context.Background(), factory, cfg)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}
