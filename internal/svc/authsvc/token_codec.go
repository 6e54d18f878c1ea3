package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/todo-auth/internal/domain"
)

// ErrEmptySigningKey is returned when a token is issued or verified without a key.
var ErrEmptySigningKey = errors.New("empty signing key")

//nolint:gochecknoglobals
var validMethods = []string{jwt.SigningMethodHS256.Alg()}

// IssueToken encodes claims as an HS256 JWT signed with key.
// The result is deterministic for equal claims and key.
func IssueToken(claims domain.Claims, key []byte) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptySigningKey
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", domain.ErrInvalidClaims)
	} else if claims.ExpiresAt <= claims.IssuedAt {
		return "", fmt.Errorf("%w: expiry %d not after issuance %d",
			domain.ErrInvalidClaims, claims.ExpiresAt, claims.IssuedAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
		ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken decodes token and checks it against key at time now.
// Checks run in order and stop at the first failure:
//   - the token cannot be parsed or lacks sub/exp: domain.ErrTokenMalformed
//   - now is not before exp: domain.ErrTokenExpired
//   - the signature does not match key: domain.ErrTokenInvalidSignature
func VerifyToken(token string, key []byte, now time.Time) (domain.Claims, error) {
	if len(key) == 0 {
		return domain.Claims{}, ErrEmptySigningKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(validMethods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var unverified jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &unverified); err != nil {
		return domain.Claims{}, errors.Join(domain.ErrTokenMalformed, err)
	}

	if unverified.Subject == "" || unverified.ExpiresAt == nil {
		return domain.Claims{}, fmt.Errorf("%w: missing sub or exp", domain.ErrTokenMalformed)
	}

	if !now.Before(unverified.ExpiresAt.Time) {
		return domain.Claims{}, domain.ErrTokenExpired
	}

	var verified jwt.RegisteredClaims

	_, err := parser.ParseWithClaims(token, &verified, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return domain.Claims{}, errors.Join(domain.ErrTokenInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Claims{}, errors.Join(domain.ErrTokenExpired, err)
		default:
			return domain.Claims{}, errors.Join(domain.ErrTokenMalformed, err)
		}
	}

	claims := domain.Claims{
		Subject:   verified.Subject,
		ExpiresAt: verified.ExpiresAt.Unix(),
	}

	if verified.IssuedAt != nil {
		claims.IssuedAt = verified.IssuedAt.Unix()
	}

	return claims, nil
}

// TokenCodec binds IssueToken and VerifyToken to the process-wide signing key
// and a clock. The key is copied once and never modified.
type TokenCodec struct {
	key []byte
	now func() time.Time
}

// NewTokenCodec creates a TokenCodec for key. A nil clock means time.Now.
func NewTokenCodec(key []byte, now func() time.Time) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}

	if now == nil {
		now = time.Now
	}

	return &TokenCodec{key: append([]byte(nil), key...), now: now}, nil
}

// Issue signs claims with the codec's key.
func (c *TokenCodec) Issue(claims domain.Claims) (string, error) {
	return IssueToken(claims, c.key)
}

// Verify checks token against the codec's key at the codec's current time.
func (c *TokenCodec) Verify(token string) (domain.Claims, error) {
	return VerifyToken(token, c.key, c.now())
}

// Now returns the codec's current time.
func (c *TokenCodec) Now() time.Time {
	return c.now()
}
