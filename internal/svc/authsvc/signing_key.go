package authsvc

import (
	"bytes"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// KeyType is the PEM block type of a signing key file.
const KeyType = "HMAC SIGNING KEY"

// MinKeySize is the minimum signing key length in bytes.
const MinKeySize = 32

var (
	// ErrNoSigningKey is returned when neither a key nor a key file is configured.
	ErrNoSigningKey = errors.New("no signing key configured")
	// ErrShortSigningKey is returned when the configured key is shorter than MinKeySize.
	ErrShortSigningKey = fmt.Errorf("signing key shorter than %d bytes", MinKeySize)
)

// SigningKeyConfig configures where the token signing key comes from.
// SigningKey takes precedence over SigningKeyFile.
type SigningKeyConfig struct {
	// SigningKey is the raw key
	SigningKey string `env:"SIGNING_KEY" default:""`

	// SigningKeyFile is the path to a PEM or raw key file
	SigningKeyFile string `env:"SIGNING_KEY_FILE" default:""`

	// GenerateSigningKey writes a fresh random key to SigningKeyFile if it does not exist
	GenerateSigningKey bool `env:"GENERATE_SIGNING_KEY" default:"false"`
}

// LoadSigningKey returns the configured signing key.
// It fails if no key is configured or the key is shorter than MinKeySize.
func LoadSigningKey(cfg SigningKeyConfig) ([]byte, error) {
	var (
		key []byte
		err error
	)

	switch {
	case cfg.SigningKey != "":
		key = []byte(cfg.SigningKey)
	case cfg.SigningKeyFile != "":
		key, err = readSigningKeyFile(cfg.SigningKeyFile, cfg.GenerateSigningKey)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSigningKey
	}

	if len(key) < MinKeySize {
		return nil, fmt.Errorf("%w: got %d", ErrShortSigningKey, len(key))
	}

	return key, nil
}

// DecodeSigningKey reads a signing key. PEM input yields the block bytes,
// anything else is used verbatim without surrounding whitespace.
func DecodeSigningKey(r io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	if block, _ := pem.Decode(buf); block != nil {
		if block.Type != KeyType {
			return nil, fmt.Errorf("decode key: unexpected block type %q", block.Type)
		}

		return block.Bytes, nil
	}

	return bytes.TrimSpace(buf), nil
}

// GenerateSigningKey creates a random signing key of the given size.
func GenerateSigningKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return key, nil
}

// EncodeSigningKey encodes a signing key as PEM.
func EncodeSigningKey(key []byte) []byte {
	//nolint:exhaustruct
	return pem.EncodeToMemory(&pem.Block{
		Type:  KeyType,
		Bytes: key,
	})
}

func readSigningKeyFile(path string, generate bool) ([]byte, error) {
	keyFile, err := os.Open(path)
	if err == nil {
		defer keyFile.Close()

		key, err := DecodeSigningKey(keyFile)
		if err != nil {
			return nil, fmt.Errorf("decode signing key: %w", err)
		}

		return key, nil
	} else if !errors.Is(err, fs.ErrNotExist) || !generate {
		return nil, fmt.Errorf("open key file: %w", err)
	}

	key, err := GenerateSigningKey(MinKeySize)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}

	// never overwrite an existing key
	if err := writeExclusive(path, EncodeSigningKey(key)); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return key, nil
}

func writeExclusive(path string, data []byte) error {
	keyFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer keyFile.Close()

	if _, err := keyFile.Write(data); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}
