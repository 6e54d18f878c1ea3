package authsvc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/todo-auth/internal/domain"
	"github.com/mkrupp/todo-auth/internal/infra/logging"
	"github.com/mkrupp/todo-auth/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	SigningKeyConfig

	// TokenTTL is the validity duration of issued tokens
	TokenTTL time.Duration `env:"TOKEN_TTL" default:"24h"`

	// StoreTimeout bounds each credential store call
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" default:"5s"`

	// HashTimeout bounds each hash or verify call including queueing
	HashTimeout time.Duration `env:"HASH_TIMEOUT" default:"10s"`

	Hasher HasherConfig      `envPrefix:"HASH_"`
	Pool   HashingPoolConfig `envPrefix:"HASH_"`
}

// AuthService provides login, registration and token validation.
type AuthService struct {
	cfg       AuthConfig
	userRepo  user.Repository
	pool      *HashingPool
	codec     *TokenCodec
	dummyHash string
	log       logging.Logger
}

// NewAuthService creates an AuthService with its own hashing pool and token codec.
// The signing key is loaded from cfg and the user repository is opened with repoFactory.
func NewAuthService(ctx context.Context, repoFactory user.RepositoryFactory, cfg AuthConfig) (*AuthService, error) {
	signingKey, err := LoadSigningKey(cfg.SigningKeyConfig)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	codec, err := NewTokenCodec(signingKey, nil)
	if err != nil {
		return nil, fmt.Errorf("new token codec: %w", err)
	}

	userRepo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	pool := NewHashingPool(NewArgon2idHasher(cfg.Hasher), cfg.Pool)

	svc, err := New(ctx, cfg, userRepo, pool, codec)
	if err != nil {
		pool.Close()
		_ = userRepo.Close()

		return nil, err
	}

	return svc, nil
}

// New assembles an AuthService from its collaborators. The service takes
// ownership of userRepo and pool and releases them in Close.
func New(
	ctx context.Context,
	cfg AuthConfig,
	userRepo user.Repository,
	pool *HashingPool,
	codec *TokenCodec,
) (*AuthService, error) {
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token ttl %s", domain.ErrInvalidClaims, cfg.TokenTTL)
	}

	// Unknown usernames are verified against this hash so that both login
	// failure paths cost one hash computation.
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	dummyHash, err := pool.Hash(ctx, string(secret))
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}

	return &AuthService{
		cfg:       cfg,
		userRepo:  userRepo,
		pool:      pool,
		codec:     codec,
		dummyHash: dummyHash,
		log:       logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// Register creates an account for username and returns a token for it.
// An existing username yields domain.ErrUsernameTaken, also when a concurrent
// registration wins the race inside the store.
func (s *AuthService) Register(ctx context.Context, username, password string) (_ string, err error) {
	log := s.log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	_, exists, err := s.findByUsername(ctx, username)
	if err != nil {
		return "", err
	} else if exists {
		return "", domain.ErrUsernameTaken
	}

	passwordHash, err := s.hash(ctx, password)
	if err != nil {
		return "", err
	}

	created, err := s.insert(ctx, username, passwordHash)
	if err != nil {
		return "", err
	}

	log = log.With(logging.Group("user", "id", created.ID))

	return s.issue(created)
}

// Login checks the password of username and returns a token on success.
// Unknown usernames and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (_ string, err error) {
	log := s.log.With(logging.Group("user", "username", username))

	defer func() {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			log.InfoContext(ctx, "login rejected")
		case err != nil:
			log.ErrorContext(ctx, "login failed", "error", err)
		default:
			log.DebugContext(ctx, "login successful")
		}
	}()

	found, exists, err := s.findByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	targetHash := s.dummyHash
	if exists {
		targetHash = found.PasswordHash
	}

	match, err := s.verify(ctx, password, targetHash)
	if err != nil {
		return "", err
	} else if !exists || !match {
		return "", domain.ErrInvalidCredentials
	}

	return s.issue(found)
}

// ValidateToken verifies token at the current time and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (claims domain.Claims, err error) {
	defer func() {
		if err != nil {
			s.log.DebugContext(ctx, "token rejected", "error", err)
		}
	}()

	claims, err = s.codec.Verify(token)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("verify token: %w", err)
	}

	return claims, nil
}

// GetUser returns the user with the given id or domain.ErrUserNotFound.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	found, ok, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Join(domain.ErrStorage, fmt.Errorf("find user by id: %w", err))
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	return found, nil
}

// Close stops the hashing pool and closes the user repository.
func (s *AuthService) Close() error {
	s.pool.Close()

	if err := s.userRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}

func (s *AuthService) issue(u *domain.User) (string, error) {
	now := s.codec.Now()

	token, err := s.codec.Issue(domain.Claims{
		Subject:   u.ID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

func (s *AuthService) findByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	found, ok, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, errors.Join(domain.ErrStorage, fmt.Errorf("find user by username: %w", err))
	}

	return found, ok, nil
}

func (s *AuthService) insert(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	created, err := s.userRepo.Insert(ctx, username, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.ErrUsernameTaken
		}

		return nil, errors.Join(domain.ErrStorage, fmt.Errorf("insert user: %w", err))
	}

	return created, nil
}

func (s *AuthService) hash(ctx context.Context, password string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.HashTimeout)
	defer cancel()

	passwordHash, err := s.pool.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, domain.ErrHashing) {
			return "", err
		}

		return "", errors.Join(domain.ErrHashing, fmt.Errorf("hash password: %w", err))
	}

	return passwordHash, nil
}

// verify returns errors wrapped in domain.ErrHashing; a malformed stored hash
// additionally matches domain.ErrMalformedHash.
func (s *AuthService) verify(ctx context.Context, password, passwordHash string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.HashTimeout)
	defer cancel()

	match, err := s.pool.Verify(ctx, password, passwordHash)
	if err != nil {
		return false, errors.Join(domain.ErrHashing, fmt.Errorf("verify password: %w", err))
	}

	return match, nil
}

func (s *AuthService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.cfg.StoreTimeout)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
