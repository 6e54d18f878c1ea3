package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mkrupp/todo-auth/internal/domain"
	context_ "github.com/mkrupp/todo-auth/internal/infra/context"
	"github.com/mkrupp/todo-auth/internal/infra/logging"
)

const (
	TraceIDHeader       = "X-Request-ID"
	AuthorizationHeader = "Authorization"
)

// maxResponseSize limits decoded response bodies.
const maxResponseSize = 1 << 20

// ErrUnexpectedStatus is returned for a non-200 response that carries no error envelope.
var ErrUnexpectedStatus = errors.New("unexpected status")

// APIError is a non-200 response of the authentication API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.StatusCode, e.Message)
}

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// BaseURL is the root URL of the auth service
	BaseURL string `env:"AUTH_URL" default:"http://localhost:8080"`
}

// HTTPClient implements AuthClient over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.authclient.http_client"),
		cfg:        cfg,
	}
}

// Register implements AuthClient.Register.
func (c *HTTPClient) Register(ctx context.Context, username, password string) (string, error) {
	return c.credentials(ctx, "/api/auth/register", username, password)
}

// Login implements AuthClient.Login.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	return c.credentials(ctx, "/api/auth/login", username, password)
}

// Validate implements AuthClient.Validate.
func (c *HTTPClient) Validate(ctx context.Context, token string) (domain.ValidateResponse, error) {
	var resp domain.ValidateResponse

	if err := c.do(ctx, http.MethodPost, "/api/auth/validate", token, nil, &resp); err != nil {
		return domain.ValidateResponse{}, err
	}

	return resp, nil
}

// Me implements AuthClient.Me.
func (c *HTTPClient) Me(ctx context.Context, token string) (domain.UserResponse, error) {
	var resp domain.UserResponse

	if err := c.do(ctx, http.MethodGet, "/api/user/me", token, nil, &resp); err != nil {
		return domain.UserResponse{}, err
	}

	return resp, nil
}

func (c *HTTPClient) credentials(ctx context.Context, path, username, password string) (string, error) {
	var resp domain.AuthTokenResponse

	err := c.do(ctx, http.MethodPost, path, "", domain.Credentials{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Token, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, dst any) error {
	var reqBody io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(AuthorizationHeader, "Bearer "+token)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode != http.StatusOK {
		var envelope domain.ErrorResponse
		if err := dec.Decode(&envelope); err != nil {
			return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}

		c.log.DebugContext(ctx, "request failed", logging.Group("http",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		))

		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
