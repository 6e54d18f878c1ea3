package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkrupp/todo-auth/internal/domain"
	context_ "github.com/mkrupp/todo-auth/internal/infra/context"
	"github.com/mkrupp/todo-auth/internal/infra/logging"
)

// AuthorizationHeader is the request header carrying the bearer token.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the case-sensitive scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (domain.Claims, error)
}

// AuthorizingMiddleware creates middleware that admits only requests with a
// valid bearer token. Each request passes these steps and stops at the first
// failure, answering 401 without calling next:
//  1. the Authorization header must be present (domain.ErrNoAuthToken)
//  2. it must start with "Bearer " (domain.ErrMalformedAuthHeader)
//  3. the token must verify (domain.ErrUnauthorized)
//  4. the token subject is attached to the request context
func AuthorizingMiddleware(
	next http.Handler,
	verifier TokenVerifier,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := BearerToken(r)
		if err != nil {
			log.WarnContext(ctx, "request rejected", "error", err)
			WriteError(w, err)

			return
		}

		claims, err := verifier.ValidateToken(ctx, token)
		if err != nil {
			log.WarnContext(ctx, "invalid token", "error", err)
			WriteError(w, domain.ErrUnauthorized)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithSubject(ctx, claims.Subject)))
	})
}

// BearerToken extracts the token from the Authorization header of r.
func BearerToken(r *http.Request) (string, error) {
	values, ok := r.Header[AuthorizationHeader]
	if !ok || len(values) == 0 {
		return "", domain.ErrNoAuthToken
	}

	token, ok := strings.CutPrefix(values[0], BearerPrefix)
	if !ok || token == "" {
		return "", domain.ErrMalformedAuthHeader
	}

	return token, nil
}
