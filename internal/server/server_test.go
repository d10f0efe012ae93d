package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weslleycarlos/controle-presos/internal/config"
)

// testEnv wraps a server instance listening on an httptest server. The
// cookie client carries the session and CSRF cookies like a browser; the
// bare client carries nothing unless headers are set explicitly.
type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	cookie *http.Client
	bare   *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Addr:         ":0",
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{
			URL: filepath.Join(t.TempDir(), "test.sqlite"),
		},
	}

	server, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		t:      t,
		srv:    ts,
		cookie: &http.Client{Jar: jar},
		bare:   &http.Client{},
	}
}

func (e *testEnv) request(client *http.Client, method, path string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	e.t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reqBody)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	require.NoError(e.t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	resp.Body.Close()

	return resp, raw
}

// setupAdmin runs first-run setup through the cookie client and returns the
// login payload (bearer token plus user details)
func (e *testEnv) setupAdmin() LoginResponse {
	e.t.Helper()

	resp, raw := e.request(e.cookie, http.MethodPost, "/api/setup", SetupRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
		Name:     "Admin",
	}, nil)
	require.Equal(e.t, http.StatusOK, resp.StatusCode, string(raw))

	var login LoginResponse
	require.NoError(e.t, json.Unmarshal(raw, &login))
	require.NotEmpty(e.t, login.Token)
	return login
}

// csrfToken reads the CSRF cookie the cookie client currently holds
func (e *testEnv) csrfToken() string {
	e.t.Helper()

	base, err := url.Parse(e.srv.URL)
	require.NoError(e.t, err)
	for _, c := range e.cookie.Jar.Cookies(base) {
		if c.Name == CSRFCookieName {
			return c.Value
		}
	}
	return ""
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestSetup_FirstAdminAndConflict(t *testing.T) {
	env := newTestEnv(t)

	login := env.setupAdmin()
	assert.Equal(t, "admin@example.com", login.User.Email)
	assert.Equal(t, "admin", login.User.Role)
	assert.Equal(t, "light", login.User.Theme)

	// Both cookies must be present after setup
	assert.NotEmpty(t, env.csrfToken(), "expected csrf_token cookie")

	// A second setup attempt is rejected
	resp, _ := env.request(env.bare, http.MethodPost, "/api/setup", SetupRequest{
		Email:    "intruder@example.com",
		Password: "whatever123",
		Name:     "Intruder",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_IssuesTokenAndCookies(t *testing.T) {
	env := newTestEnv(t)
	env.setupAdmin()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	fresh := &http.Client{Jar: jar}

	resp, raw := env.request(fresh, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var login LoginResponse
	require.NoError(t, json.Unmarshal(raw, &login))
	assert.NotEmpty(t, login.Token)

	var hasSession, hasCSRF bool
	for _, c := range resp.Cookies() {
		switch c.Name {
		case SessionCookieName:
			hasSession = true
			assert.True(t, c.HttpOnly, "session cookie must be httpOnly")
		case CSRFCookieName:
			hasCSRF = true
			assert.False(t, c.HttpOnly, "csrf cookie must be readable")
		}
	}
	assert.True(t, hasSession, "expected session cookie")
	assert.True(t, hasCSRF, "expected csrf cookie")
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.setupAdmin()

	resp, _ := env.request(env.bare, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(env.bare, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser_BothTransports(t *testing.T) {
	env := newTestEnv(t)
	login := env.setupAdmin()

	// No credentials at all
	resp, _ := env.request(env.bare, http.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Bearer token
	resp, raw := env.request(env.bare, http.MethodGet, "/api/users/me", nil, bearer(login.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var viaBearer UserDetail
	require.NoError(t, json.Unmarshal(raw, &viaBearer))
	assert.Equal(t, "admin@example.com", viaBearer.Email)

	// Session cookie (captured by the cookie client during setup)
	resp, raw = env.request(env.cookie, http.MethodGet, "/api/users/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var viaCookie UserDetail
	require.NoError(t, json.Unmarshal(raw, &viaCookie))
	assert.Equal(t, viaBearer.ID, viaCookie.ID)

	// Garbage token
	resp, _ = env.request(env.bare, http.MethodGet, "/api/users/me", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCSRF_CookieSessionsOnly(t *testing.T) {
	env := newTestEnv(t)
	login := env.setupAdmin()

	name := "Renamed"
	update := UpdateProfileRequest{Name: &name}

	// Cookie-authenticated mutation without the CSRF header is rejected
	resp, _ := env.request(env.cookie, http.MethodPut, "/api/users/me", update, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Wrong header value is rejected too
	resp, _ = env.request(env.cookie, http.MethodPut, "/api/users/me", update,
		map[string]string{CSRFHeaderName: "not-the-token"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Echoing the cookie value in the header passes
	resp, raw := env.request(env.cookie, http.MethodPut, "/api/users/me", update,
		map[string]string{CSRFHeaderName: env.csrfToken()})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// Bearer-authenticated mutations are exempt from CSRF entirely
	name2 := "Renamed Again"
	resp, raw = env.request(env.bare, http.MethodPut, "/api/users/me",
		UpdateProfileRequest{Name: &name2}, bearer(login.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// Reads never require CSRF
	resp, _ = env.request(env.cookie, http.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateCurrentUser_ThemeValidation(t *testing.T) {
	env := newTestEnv(t)
	login := env.setupAdmin()

	dark := "dark"
	resp, raw := env.request(env.bare, http.MethodPut, "/api/users/me",
		UpdateProfileRequest{Theme: &dark}, bearer(login.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var updated UserDetail
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "dark", updated.Theme)
	// Untouched fields survive a partial update
	assert.Equal(t, "Admin", updated.Name)

	sepia := "sepia"
	resp, _ = env.request(env.bare, http.MethodPut, "/api/users/me",
		UpdateProfileRequest{Theme: &sepia}, bearer(login.Token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateUser_RoleValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.setupAdmin()

	// Unknown roles are rejected by the registered role validation
	resp, raw := env.request(env.bare, http.MethodPost, "/api/users", CreateUserRequest{
		Email:    "eve@example.com",
		Name:     "Eve",
		Password: "eve-password",
		Role:     "superuser",
	}, bearer(admin.Token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	// Known roles pass
	resp, raw = env.request(env.bare, http.MethodPost, "/api/users", CreateUserRequest{
		Email:    "eve@example.com",
		Name:     "Eve",
		Password: "eve-password",
		Role:     "admin",
	}, bearer(admin.Token))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created CreateUserResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "admin", created.User.Role)
}

func TestIssueCSRFToken_RotatesCookie(t *testing.T) {
	env := newTestEnv(t)
	env.setupAdmin()

	before := env.csrfToken()
	require.NotEmpty(t, before)

	resp, _ := env.request(env.cookie, http.MethodGet, "/api/csrf-token", nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	after := env.csrfToken()
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after, "expected the CSRF token to rotate")
}

func TestLogout_PublicAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.setupAdmin()

	// Logout with a live session clears the cookies
	resp, _ := env.request(env.cookie, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(env.cookie, http.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout without any session still succeeds
	resp, _ = env.request(env.bare, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	login := env.setupAdmin()

	// Wrong old password
	resp, _ := env.request(env.bare, http.MethodPut, "/api/users/me/password", ChangePasswordRequest{
		OldPassword: "not-it",
		NewPassword: "new-password-123",
	}, bearer(login.Token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Correct old password
	resp, raw := env.request(env.bare, http.MethodPut, "/api/users/me/password", ChangePasswordRequest{
		OldPassword: "admin-password",
		NewPassword: "new-password-123",
	}, bearer(login.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// The old password no longer works, the new one does
	resp, _ = env.request(env.bare, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(env.bare, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "admin@example.com",
		Password: "new-password-123",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserManagement_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.setupAdmin()

	// Admin creates a regular user
	resp, raw := env.request(env.bare, http.MethodPost, "/api/users", CreateUserRequest{
		Email:    "carla@example.com",
		Name:     "Carla",
		Password: "carla-password",
	}, bearer(admin.Token))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created CreateUserResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "user", created.User.Role)

	// The new user can log in but cannot touch admin routes
	resp, raw = env.request(env.bare, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "carla@example.com",
		Password: "carla-password",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var carla LoginResponse
	require.NoError(t, json.Unmarshal(raw, &carla))

	resp, _ = env.request(env.bare, http.MethodGet, "/api/users", nil, bearer(carla.Token))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(env.bare, http.MethodPost, "/api/users", CreateUserRequest{
		Email:    "mallory@example.com",
		Name:     "Mallory",
		Password: "mallory-pass",
	}, bearer(carla.Token))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin listing sees both users
	resp, raw = env.request(env.bare, http.MethodGet, "/api/users", nil, bearer(admin.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var users []UserDetail
	require.NoError(t, json.Unmarshal(raw, &users))
	assert.Len(t, users, 2)

	// Admin cannot delete themselves
	resp, _ = env.request(env.bare, http.MethodDelete, "/api/users/"+admin.User.ID, nil, bearer(admin.Token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// But can delete the other user
	resp, _ = env.request(env.bare, http.MethodDelete, "/api/users/"+created.User.ID, nil, bearer(admin.Token))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(env.bare, http.MethodDelete, "/api/users/"+created.User.ID, nil, bearer(admin.Token))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.request(env.bare, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "online", health["status"])
}
