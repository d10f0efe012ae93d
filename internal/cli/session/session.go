// Package session owns the client-side session lifecycle: anonymous,
// authenticating, authenticated, logged out. It is the single writer of the
// credential store, the cookie jar and the cached theme preference; the
// rest of the application only consumes its state and the current user
// snapshot, never the underlying credential transport.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/weslleycarlos/controle-presos/internal/cli/client"
	"github.com/weslleycarlos/controle-presos/internal/cli/credentials"
	"github.com/weslleycarlos/controle-presos/internal/cli/userconfig"
)

// State is the client's belief about the current session
type State int

const (
	// StateUnresolved means bootstrapping has not completed yet. Route
	// guards must treat it as "render nothing", never as authenticated
	// or anonymous.
	StateUnresolved State = iota

	// StateAuthenticated means a "who am I" call succeeded and a user
	// snapshot is available
	StateAuthenticated

	// StateAnonymous means no usable credential exists
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Role and theme values mirrored from the server's user model
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrSessionExpired is returned when a previously valid session is rejected
// by the server. Local state has already been cleared when it is returned.
var ErrSessionExpired = errors.New("session expired, please log in again")

// User is the read-only profile snapshot held while authenticated
type User struct {
	ID    string
	Email string
	Name  string
	Role  string
	Theme string
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Client is the API surface the session manager needs. *client.Client
// satisfies it; tests substitute fakes.
type Client interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	WhoAmI(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	RefreshCSRFToken(ctx context.Context) error
	UpdatePreferences(ctx context.Context, update client.PreferenceUpdate) (*client.User, error)
	ClearCookies() error
}

// Manager owns the session state machine. Only Login, Logout, Resolve and
// SetTheme mutate the credential store, the cookie jar or the theme cache,
// keeping a single-writer invariant over those process-wide resources.
type Manager struct {
	mu         sync.Mutex
	state      State
	user       *User
	generation uint64

	api    Client
	creds  credentials.Store
	server string
	themes userconfig.ThemeCache
	logger zerolog.Logger
}

// NewManager creates a session manager in the Unresolved state. server is
// the credential-store key for this API host.
func NewManager(api Client, creds credentials.Store, server string, themes userconfig.ThemeCache, log zerolog.Logger) *Manager {
	return &Manager{
		state:  StateUnresolved,
		api:    api,
		creds:  creds,
		server: server,
		themes: themes,
		logger: log,
	}
}

// State returns the current session state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the authenticated user snapshot, if any
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Theme returns the effective display theme: the authenticated user's
// preference when available, otherwise the locally cached value, otherwise
// the light default. The local cache is read before any remote sync, so a
// fresh process renders the last chosen theme immediately.
func (m *Manager) Theme() string {
	m.mu.Lock()
	user := m.user
	m.mu.Unlock()

	if user != nil && user.Theme != "" {
		return user.Theme
	}
	if theme, ok := m.themes.LoadTheme(); ok {
		return theme
	}
	return ThemeLight
}

// Resolve performs the one-shot session bootstrap: ask the server who the
// current credential belongs to and derive the session state from the
// answer. Every failure mode (401, network error, malformed response)
// resolves to Anonymous and clears stale local credentials, so the caller
// always ends in a consistent state. Returns the resolved state.
//
// Overlapping calls are guarded by a generation counter: only the newest
// resolution may apply its result, so a slow stale response can never
// overwrite a fresher one.
func (m *Manager) Resolve(ctx context.Context) State {
	gen := m.beginResolve()

	profile, err := m.api.WhoAmI(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Session resolution failed, treating as anonymous")
		return m.applyAnonymous(gen)
	}

	user := &User{
		ID:    profile.ID,
		Email: profile.Email,
		Name:  profile.Name,
		Role:  profile.Role,
		Theme: profile.Theme,
	}

	state, applied := m.applyAuthenticated(gen, user)
	if !applied {
		return state
	}

	// Cache the server-side theme preference so the next process start
	// renders correctly before any network round trip
	if err := m.themes.SaveTheme(user.Theme); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to cache theme preference locally")
	}

	// Fire-and-forget CSRF refresh: only mutating requests need the
	// token, so a failure here must not abort authentication
	if err := m.api.RefreshCSRFToken(ctx); err != nil {
		m.logger.Debug().Err(err).Msg("CSRF token refresh failed, continuing")
	}

	return StateAuthenticated
}

// beginResolve starts a new resolution generation
func (m *Manager) beginResolve() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return m.generation
}

// applyAnonymous installs the Anonymous state and clears stale local
// credentials, unless a newer resolution has superseded this one
func (m *Manager) applyAnonymous(gen uint64) State {
	m.mu.Lock()
	if gen != m.generation {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.state = StateAnonymous
	m.user = nil
	m.mu.Unlock()

	m.clearLocal()
	return StateAnonymous
}

// applyAuthenticated installs the Authenticated state, unless superseded
func (m *Manager) applyAuthenticated(gen uint64, user *User) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return m.state, false
	}
	m.state = StateAuthenticated
	m.user = user
	return StateAuthenticated, true
}

// clearLocal removes every locally held credential and cached preference.
// All-or-nothing: failures are logged but never leave the rest in place.
func (m *Manager) clearLocal() {
	if err := m.creds.Delete(m.server); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete stored token")
	}
	if err := m.themes.ClearTheme(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear cached theme")
	}
	if err := m.api.ClearCookies(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear session cookies")
	}
}

// Login authenticates with email and password, persists the returned bearer
// token and re-resolves the session. The login transport error (wrong
// password, unreachable server) propagates to the caller for display.
func (m *Manager) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if resp.Token != "" {
		if err := m.creds.Save(m.server, resp.Token); err != nil {
			// The cookie session still covers this process; the token
			// just won't survive a restart
			m.logger.Warn().Err(err).Msg("Failed to persist bearer token")
		}
	}

	if state := m.Resolve(ctx); state != StateAuthenticated {
		return nil, fmt.Errorf("login succeeded but session resolution ended %s", state)
	}

	user, _ := m.CurrentUser()
	return &user, nil
}

// Logout notifies the server (best effort) and unconditionally clears all
// local session state: stored token, cached theme, cookies. It never fails
// locally; a server-side error only means the remote session may outlive
// this client.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Server-side logout failed, continuing with local cleanup")
	}

	m.reset()
	return nil
}

// reset forces the Anonymous state and clears local credentials. Bumping
// the generation also discards any in-flight resolution.
func (m *Manager) reset() {
	m.mu.Lock()
	m.generation++
	m.state = StateAnonymous
	m.user = nil
	m.mu.Unlock()

	m.clearLocal()
}

// HandleRequestError routes a feature-request error through the session
// layer. A 401 means the session the server once accepted is gone: local
// state is cleared and ErrSessionExpired (or the original error when the
// session was never established) is returned. Any other error passes
// through untouched for the caller to surface.
func (m *Manager) HandleRequestError(err error) error {
	if err == nil || !errors.Is(err, client.ErrUnauthenticated) {
		return err
	}

	wasAuthenticated := m.State() == StateAuthenticated
	m.reset()

	if wasAuthenticated {
		return ErrSessionExpired
	}
	return err
}

// SetTheme persists a display-preference change: locally first (synchronous,
// authoritative for the UI), then to the server best-effort. A failed remote
// write is logged and never rolls back the local value.
func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("invalid theme %q (expected %q or %q)", theme, ThemeLight, ThemeDark)
	}

	if err := m.themes.SaveTheme(theme); err != nil {
		return fmt.Errorf("failed to save theme locally: %w", err)
	}

	m.mu.Lock()
	if m.user != nil {
		m.user.Theme = theme
	}
	m.mu.Unlock()

	if _, err := m.api.UpdatePreferences(ctx, client.PreferenceUpdate{Theme: &theme}); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to sync theme to server, keeping local value")
	}

	return nil
}
