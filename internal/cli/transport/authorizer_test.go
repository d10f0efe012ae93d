package transport

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
)

func mustRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return req
}

func TestAuthorize_BearerToken(t *testing.T) {
	req := mustRequest(t, http.MethodGet, "https://api.example.com/api/users/me")

	out := Authorize(req, "token-abc", "")

	if got := out.Header.Get("Authorization"); got != "Bearer token-abc" {
		t.Errorf("expected 'Bearer token-abc', got %q", got)
	}

	// Original request must stay untouched
	if req.Header.Get("Authorization") != "" {
		t.Error("Authorize modified the original request")
	}
}

func TestAuthorize_DoesNotOverrideExplicitAuthorization(t *testing.T) {
	req := mustRequest(t, http.MethodGet, "https://api.example.com/api/users/me")
	req.Header.Set("Authorization", "Bearer caller-supplied")

	out := Authorize(req, "token-abc", "")

	if got := out.Header.Get("Authorization"); got != "Bearer caller-supplied" {
		t.Errorf("expected caller-supplied header to survive, got %q", got)
	}
}

func TestAuthorize_NoBearerWhenAbsent(t *testing.T) {
	req := mustRequest(t, http.MethodGet, "https://api.example.com/api/users/me")

	out := Authorize(req, "", "")

	if got := out.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestAuthorize_CSRFOnlyOnMutatingMethods(t *testing.T) {
	tests := []struct {
		method     string
		wantHeader bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodOptions, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
		{http.MethodPatch, true},
		{http.MethodDelete, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := mustRequest(t, tt.method, "https://api.example.com/api/users/me")
			out := Authorize(req, "", "csrf-xyz")

			got := out.Header.Get(CSRFHeader)
			if tt.wantHeader && got != "csrf-xyz" {
				t.Errorf("expected CSRF header on %s, got %q", tt.method, got)
			}
			if !tt.wantHeader && got != "" {
				t.Errorf("expected no CSRF header on %s, got %q", tt.method, got)
			}
		})
	}
}

func TestAuthorize_NoCSRFWhenAbsent(t *testing.T) {
	req := mustRequest(t, http.MethodPost, "https://api.example.com/api/users/me")

	out := Authorize(req, "", "")

	if got := out.Header.Get(CSRFHeader); got != "" {
		t.Errorf("expected no CSRF header when token is absent, got %q", got)
	}
}

type staticCSRF string

func (s staticCSRF) CSRFToken() (string, bool) {
	return string(s), s != ""
}

func TestAuthorizer_RoundTrip(t *testing.T) {
	var gotAuth, gotCSRF string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCSRF = r.Header.Get(CSRFHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{
		Transport: &Authorizer{
			Tokens: StaticTokenSource("token-123"),
			CSRF:   staticCSRF("csrf-456"),
		},
	}

	resp, err := client.Post(srv.URL+"/api/users/me", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer token-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotCSRF != "csrf-456" {
		t.Errorf("expected CSRF header, got %q", gotCSRF)
	}
}

func TestJarCSRFSource_ReadsFreshValue(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create jar: %v", err)
	}

	base, _ := url.Parse("https://api.example.com")
	source := &JarCSRFSource{Jar: jar, URL: base}

	if _, ok := source.CSRFToken(); ok {
		t.Error("expected no token from an empty jar")
	}

	jar.SetCookies(base, []*http.Cookie{{Name: CSRFCookieName, Value: "first"}})
	if token, ok := source.CSRFToken(); !ok || token != "first" {
		t.Errorf("expected 'first', got %q (ok=%v)", token, ok)
	}

	// Rotation must be picked up without rebuilding the source
	jar.SetCookies(base, []*http.Cookie{{Name: CSRFCookieName, Value: "second"}})
	if token, ok := source.CSRFToken(); !ok || token != "second" {
		t.Errorf("expected 'second' after rotation, got %q (ok=%v)", token, ok)
	}
}

func TestStoreTokenSource_AbsentIsNotAnError(t *testing.T) {
	source := &StoreTokenSource{Store: nil, Server: "api.example.com"}
	if _, ok := source.BearerToken(); ok {
		t.Error("expected no token from a nil store")
	}
}
