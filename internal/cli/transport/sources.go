package transport

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/weslleycarlos/controle-presos/internal/cli/credentials"
)

// StoreTokenSource adapts a credentials.Store to a TokenSource. A missing
// credential is reported as absent, not as an error: the request then goes
// out relying on the cookie session, if any.
type StoreTokenSource struct {
	Store  credentials.Store
	Server string
}

// BearerToken implements TokenSource
func (s *StoreTokenSource) BearerToken() (string, bool) {
	if s.Store == nil {
		return "", false
	}
	token, err := s.Store.Load(s.Server)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// StaticTokenSource returns a fixed token; used in tests and for one-off
// clients built around an already-known credential
type StaticTokenSource string

// BearerToken implements TokenSource
func (s StaticTokenSource) BearerToken() (string, bool) {
	return string(s), s != ""
}

// JarCSRFSource reads the CSRF token from the csrf_token cookie held in the
// client's cookie jar for the API base URL. The jar is read fresh on every
// call so server-side rotation is picked up immediately.
type JarCSRFSource struct {
	Jar http.CookieJar
	URL *url.URL
}

// NewJarCSRFSource builds a JarCSRFSource for the given base URL
func NewJarCSRFSource(jar http.CookieJar, baseURL string) (*JarCSRFSource, error) {
	if jar == nil {
		return nil, errors.New("cookie jar is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &JarCSRFSource{Jar: jar, URL: parsed}, nil
}

// CSRFToken implements CSRFSource
func (j *JarCSRFSource) CSRFToken() (string, bool) {
	if j.Jar == nil || j.URL == nil {
		return "", false
	}
	for _, cookie := range j.Jar.Cookies(j.URL) {
		if cookie.Name == CSRFCookieName && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}
