package authsvc

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mkrupp/todo-auth/internal/domain"
)

const argon2idID = "argon2id"

// maxKeyLen bounds the digest length accepted from a stored hash.
const maxKeyLen = 1 << 10

// HasherConfig holds the argon2id cost parameters used for new hashes.
// Verification always uses the parameters embedded in the stored hash.
type HasherConfig struct {
	// Time is the number of passes over memory
	Time uint32 `env:"TIME" default:"1"`

	// MemoryKiB is the memory cost in KiB
	MemoryKiB uint32 `env:"MEMORY_KIB" default:"65536"`

	// Threads is the degree of parallelism
	Threads uint8 `env:"THREADS" default:"4"`

	// KeyLen is the digest length in bytes
	KeyLen uint32 `env:"KEY_LEN" default:"32"`

	// SaltLen is the salt length in bytes
	SaltLen uint32 `env:"SALT_LEN" default:"16"`
}

// PasswordHasher computes and verifies one-way password hashes.
type PasswordHasher interface {
	// Hash returns a self-describing hash string of the password with a fresh salt.
	Hash(password string) (string, error)

	// Verify reports whether password matches the hash string.
	// A mismatch is (false, nil); an unparsable hash fails with domain.ErrMalformedHash.
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id and PHC strings:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<digest>.
type Argon2idHasher struct {
	cfg HasherConfig
}

var _ PasswordHasher = (*Argon2idHasher)(nil)

// NewArgon2idHasher creates an Argon2idHasher. Zero parameters fall back to
// the defaults of HasherConfig.
func NewArgon2idHasher(cfg HasherConfig) *Argon2idHasher {
	if cfg.Time == 0 {
		cfg.Time = 1
	}

	if cfg.MemoryKiB == 0 {
		cfg.MemoryKiB = 64 * 1024
	}

	if cfg.Threads == 0 {
		cfg.Threads = 4
	}

	if cfg.KeyLen == 0 {
		cfg.KeyLen = 32
	}

	if cfg.SaltLen == 0 {
		cfg.SaltLen = 16
	}

	return &Argon2idHasher{cfg: cfg}
}

// Hash implements PasswordHasher.Hash.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(domain.ErrHashing, fmt.Errorf("read salt: %w", err))
	}

	digest := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.MemoryKiB, h.cfg.Threads, h.cfg.KeyLen)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idID,
		argon2.Version,
		h.cfg.MemoryKiB,
		h.cfg.Time,
		h.cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify implements PasswordHasher.Verify.
func (h *Argon2idHasher) Verify(password, hash string) (bool, error) {
	params, salt, digest, err := decodeHash(hash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}

func decodeHash(hash string) (HasherConfig, []byte, []byte, error) {
	var params HasherConfig

	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, fmt.Errorf("%w: want 6 parts", domain.ErrMalformedHash)
	}

	if parts[1] != argon2idID {
		return params, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", domain.ErrMalformedHash, parts[1])
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return params, nil, nil, fmt.Errorf("%w: unsupported version %q", domain.ErrMalformedHash, parts[2])
	}

	for field := range strings.SplitSeq(parts[3], ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return params, nil, nil, fmt.Errorf("%w: param %q", domain.ErrMalformedHash, field)
		}

		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return params, nil, nil, errors.Join(domain.ErrMalformedHash, err)
			}

			params.MemoryKiB = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return params, nil, nil, errors.Join(domain.ErrMalformedHash, err)
			}

			params.Time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return params, nil, nil, errors.Join(domain.ErrMalformedHash, err)
			}

			params.Threads = uint8(v)
		default:
			return params, nil, nil, fmt.Errorf("%w: unknown param %q", domain.ErrMalformedHash, key)
		}
	}

	// argon2.IDKey panics on zero time or parallelism
	if params.MemoryKiB == 0 || params.Time == 0 || params.Threads == 0 {
		return params, nil, nil, fmt.Errorf("%w: missing or zero params", domain.ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errors.Join(domain.ErrMalformedHash, fmt.Errorf("decode salt: %w", err))
	} else if len(salt) == 0 {
		return params, nil, nil, fmt.Errorf("%w: empty salt", domain.ErrMalformedHash)
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, errors.Join(domain.ErrMalformedHash, fmt.Errorf("decode digest: %w", err))
	} else if len(digest) == 0 || len(digest) > maxKeyLen {
		return params, nil, nil, fmt.Errorf("%w: digest length %d", domain.ErrMalformedHash, len(digest))
	}

	return params, salt, digest, nil
}
