package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// GenerateCSRFToken returns a new random CSRF token (64 hex characters =
// 32 bytes of randomness). The token is handed to the browser in a
// non-httpOnly cookie and must be echoed back in the X-CSRF-Token header
// on mutating requests (double submit).
func GenerateCSRFToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// ValidCSRFToken compares the header token against the cookie token in
// constant time
func ValidCSRFToken(headerToken, cookieToken string) bool {
	if headerToken == "" || cookieToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
}
