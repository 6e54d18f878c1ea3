package authsvc_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/todo-auth/internal/domain"
	"github.com/mkrupp/todo-auth/internal/repo/user"
	"github.com/mkrupp/todo-auth/internal/svc/authsvc"
)

//nolint:gochecknoglobals
var (
	testKey = []byte("0123456789abcdef0123456789abcdef")

	// cheap argon2id parameters so tests stay fast
	testHasherConfig = authsvc.HasherConfig{
		Time:      1,
		MemoryKiB: 64,
		Threads:   1,
		KeyLen:    32,
		SaltLen:   16,
	}
)

// clock is a settable time source for the token codec.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Now()}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func testAuthConfig() authsvc.AuthConfig {
	return authsvc.AuthConfig{
		TokenTTL:     time.Hour,
		StoreTimeout: 5 * time.Second,
		HashTimeout:  5 * time.Second,
	}
}

func newTestPool(t *testing.T) *authsvc.HashingPool {
	t.Helper()

	return authsvc.NewHashingPool(
		authsvc.NewArgon2idHasher(testHasherConfig),
		authsvc.HashingPoolConfig{Workers: 4, QueueSize: 16},
	)
}

func newTestService(t *testing.T, repo user.Repository, clk *clock) *authsvc.AuthService {
	t.Helper()

	if clk == nil {
		clk = newClock()
	}

	codec, err := authsvc.NewTokenCodec(testKey, clk.Now)
	require.NoError(t, err)

	svc, err := authsvc.New(context.Background(), testAuthConfig(), repo, newTestPool(t), codec)
	require.NoError(t, err)

	t.Cleanup(func() { _ = svc.Close() })

	return svc
}

// stubRepository is a user.Repository with scripted results.
type stubRepository struct {
	findUser  *domain.User
	findErr   error
	insertErr error
}

func (r *stubRepository) FindByUsername(context.Context, string) (*domain.User, bool, error) {
	return r.findUser, r.findUser != nil, r.findErr
}

func (r *stubRepository) FindByID(context.Context, string) (*domain.User, bool, error) {
	return r.findUser, r.findUser != nil, r.findErr
}

func (r *stubRepository) Insert(_ context.Context, username, passwordHash string) (*domain.User, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}

	return &domain.User{ID: "stub-id", Username: username, PasswordHash: passwordHash}, nil
}

func (r *stubRepository) Close() error {
	return nil
}
