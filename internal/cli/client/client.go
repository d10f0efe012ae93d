// Package client implements the HTTP client for the controle-presos API.
// Every request leaves through the transport.Authorizer, which attaches the
// stored bearer token and, on mutating verbs, the CSRF token from the
// cookie jar. The client itself never inspects which transport carried the
// credential; that is the server's concern.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/weslleycarlos/controle-presos/internal/cli/credentials"
	"github.com/weslleycarlos/controle-presos/internal/cli/transport"
)

// ErrUnauthenticated is returned for any 401 response. Session-level code
// treats it uniformly as "session expired or login required".
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError is a non-401 error response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Client represents an HTTP client for the controle-presos API
type Client struct {
	baseURL    string
	httpClient *http.Client
	csrf       *transport.JarCSRFSource
	logger     zerolog.Logger
}

// New creates a new API client. The credential store supplies the bearer
// token per request; the cookie jar holds the session and CSRF cookies for
// cookie-based authentication.
func New(baseURL string, creds credentials.Store, log zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	csrf := &transport.JarCSRFSource{Jar: jar, URL: parsed}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			Transport: &transport.Authorizer{
				Base:   http.DefaultTransport,
				Tokens: &transport.StoreTokenSource{Store: creds, Server: parsed.Host},
				CSRF:   csrf,
			},
		},
		csrf:   csrf,
		logger: log,
	}, nil
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// ClearCookies drops every cookie the client holds, including the session
// and CSRF cookies. Called on logout so no credential survives in memory.
func (c *Client) ClearCookies() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to reset cookie jar: %w", err)
	}
	c.httpClient.Jar = jar
	c.csrf.Jar = jar
	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User represents the profile snapshot returned by the server
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// PreferenceUpdate is a partial profile update. Nil fields are untouched.
type PreferenceUpdate struct {
	Name  *string `json:"name,omitempty"`
	Theme *string `json:"theme,omitempty"`
}

// Login authenticates with email and password. The server responds with a
// bearer token and also sets the session and CSRF cookies on the jar.
// Persisting the token is the caller's decision, not the client's.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// WhoAmI resolves the current user against the server, using whatever
// credential the authorizer attaches (bearer token or session cookie).
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout asks the server to invalidate the session. Idempotent on the
// server side; callers ignore failures and clean up locally regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// RefreshCSRFToken asks the server to (re)issue the CSRF cookie. The
// response body is ignored; the token arrives via Set-Cookie into the jar.
func (c *Client) RefreshCSRFToken(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/csrf-token", nil, nil)
}

// UpdatePreferences pushes a partial preference update to the server and
// returns the updated profile
func (c *Client) UpdatePreferences(ctx context.Context, update PreferenceUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword changes the current user's password
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.do(ctx, http.MethodPut, "/api/users/me/password", body, nil)
}

// do performs a JSON request against the API and decodes the response into
// out (when non-nil). 401 responses map to ErrUnauthenticated; other error
// statuses map to *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// A mutating request without an available CSRF token is still sent;
	// the server is the authority that rejects it. Worth a trace though.
	if transport.IsMutating(method) {
		if _, ok := c.csrf.CSRFToken(); !ok {
			c.logger.Debug().Str("method", method).Str("path", path).
				Msg("No CSRF token available for mutating request")
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return ErrUnauthenticated
	}

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		message := strings.TrimSpace(string(raw))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return nil
}
