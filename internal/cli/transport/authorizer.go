// Package transport decides which credentials every outgoing API request
// carries. The decision is a pure transform computed fresh per request from
// the stored bearer token and the server-issued CSRF cookie; nothing here
// performs network calls of its own or mutates shared state.
package transport

import (
	"net/http"
)

const (
	// CSRFHeader is the request header carrying the CSRF token on
	// mutating requests
	CSRFHeader = "X-CSRF-Token"

	// CSRFCookieName is the non-httpOnly cookie the server issues the
	// CSRF token in. The client only ever reads it.
	CSRFCookieName = "csrf_token"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// TokenSource yields the current bearer credential, if any
type TokenSource interface {
	BearerToken() (string, bool)
}

// CSRFSource yields the current CSRF token, if any. Implementations must
// read fresh on every call: the server may rotate the token at any time.
type CSRFSource interface {
	CSRFToken() (string, bool)
}

// IsMutating reports whether the method is subject to CSRF protection.
// Read verbs (GET, HEAD, OPTIONS) never carry a CSRF header.
func IsMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Authorize returns a clone of req with credentials attached:
//
//   - the bearer token, unless the caller already supplied an explicit
//     Authorization header (no override)
//   - the CSRF token, only on mutating verbs and only when available
//
// Empty bearer/csrf values mean "absent"; with neither available the clone
// is returned unauthenticated and the server stays the authority that
// rejects it. The caller's request is never modified.
func Authorize(req *http.Request, bearer, csrf string) *http.Request {
	out := req.Clone(req.Context())

	if bearer != "" && out.Header.Get(authorizationHeader) == "" {
		out.Header.Set(authorizationHeader, bearerPrefix+bearer)
	}

	if csrf != "" && IsMutating(out.Method) {
		out.Header.Set(CSRFHeader, csrf)
	}

	return out
}

// Authorizer is an http.RoundTripper that authorizes every outgoing request
// via Authorize before handing it to the base transport.
type Authorizer struct {
	Base   http.RoundTripper
	Tokens TokenSource
	CSRF   CSRFSource
}

// RoundTrip implements http.RoundTripper
func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	var bearer, csrf string
	if a.Tokens != nil {
		if token, ok := a.Tokens.BearerToken(); ok {
			bearer = token
		}
	}
	if a.CSRF != nil {
		if token, ok := a.CSRF.CSRFToken(); ok {
			csrf = token
		}
	}

	base := a.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(Authorize(req, bearer, csrf))
}
