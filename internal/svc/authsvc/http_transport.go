package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkrupp/todo-auth/internal/domain"
	context_ "github.com/mkrupp/todo-auth/internal/infra/context"
	"github.com/mkrupp/todo-auth/internal/infra/logging"
	http_ "github.com/mkrupp/todo-auth/internal/infra/transport/http"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport serves the authentication API:
//   - POST /api/auth/register: register and get a token
//   - POST /api/auth/login: log in and get a token
//   - POST /api/auth/validate: validate the bearer token (protected)
//   - GET /api/user/me: the authenticated user (protected)
//   - GET /metrics: Prometheus metrics
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	mux     *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport backed by authSvc.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		mux:     http.NewServeMux(),
	}

	protected := func(h http.HandlerFunc) http.Handler {
		return http_.AuthorizingMiddleware(h, authSvc, ht.log)
	}

	ht.mux.HandleFunc("POST /api/auth/register", ht.HandleRegister)
	ht.mux.HandleFunc("POST /api/auth/login", ht.HandleLogin)
	ht.mux.Handle("POST /api/auth/validate", protected(ht.HandleValidate))
	ht.mux.Handle("GET /api/user/me", protected(ht.HandleMe))
	ht.mux.Handle("GET /metrics", promhttp.Handler())

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleRegister processes user registration requests.
// Expects a JSON body {"username", "password"} and returns a token.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCredentials(w, r, "register", ht.authSvc.Register)
}

// HandleLogin processes user login requests.
// Expects a JSON body {"username", "password"} and returns a token.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCredentials(w, r, "login", ht.authSvc.Login)
}

func (ht *HTTPTransport) handleCredentials(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	authenticate func(ctx context.Context, username, password string) (string, error),
) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, action+" failed", "error", err)
		}
	}(r.Context())

	var creds domain.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		http_.WriteError(w, err)

		return err
	}

	token, err := authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		http_.WriteError(w, err)

		return fmt.Errorf("%s: %w", action, err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, domain.AuthTokenResponse{Token: token}); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleValidate returns the claims of the bearer token already verified by
// the authorizing middleware.
func (ht *HTTPTransport) HandleValidate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleValidate(w, r)
}

func (ht *HTTPTransport) handleValidate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "token validation failed", "error", err)
		}
	}(r.Context())

	token, err := http_.BearerToken(r)
	if err != nil {
		http_.WriteError(w, err)

		return err
	}

	claims, err := ht.authSvc.ValidateToken(r.Context(), token)
	if err != nil {
		http_.WriteError(w, domain.ErrUnauthorized)

		return fmt.Errorf("validate token: %w", err)
	}

	log.DebugContext(r.Context(), "token validated", logging.Group("token",
		"sub", claims.Subject,
		"exp", time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339),
	))

	if err := http_.WriteJSON(w, http.StatusOK, domain.ValidateResponse{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleMe returns the user identified by the request's token subject.
func (ht *HTTPTransport) HandleMe(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMe(w, r)
}

func (ht *HTTPTransport) handleMe(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			log.ErrorContext(ctx, "get user failed", "error", err)
		}
	}(r.Context())

	subject, ok := context_.SubjectFromContext(r.Context())
	if !ok {
		http_.WriteError(w, domain.ErrUnauthorized)

		return domain.ErrUnauthorized
	}

	found, err := ht.authSvc.GetUser(r.Context(), subject)
	if err != nil {
		http_.WriteError(w, err)

		return fmt.Errorf("get user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, found.Response()); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}
