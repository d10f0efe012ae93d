package auth

import (
	"strings"
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateToken("01HTEST", "ana@example.com", "admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != "01HTEST" {
		t.Errorf("unexpected user ID %q", claims.UserID)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("unexpected email %q", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("unexpected role %q", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected expiry claim")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	InitializeJWT("secret-one")
	token, err := GenerateToken("01HTEST", "ana@example.com", "user")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	InitializeJWT("secret-two")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	InitializeJWT("test-secret")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestGenerateCSRFToken(t *testing.T) {
	first, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("failed to generate CSRF token: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(first))
	}
	if strings.ToLower(first) != first {
		t.Error("expected lowercase hex encoding")
	}

	second, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("failed to generate CSRF token: %v", err)
	}
	if first == second {
		t.Error("expected distinct tokens")
	}
}

func TestValidCSRFToken(t *testing.T) {
	if !ValidCSRFToken("abc123", "abc123") {
		t.Error("expected matching tokens to validate")
	}
	if ValidCSRFToken("abc123", "different") {
		t.Error("expected mismatched tokens to fail")
	}
	if ValidCSRFToken("", "") {
		t.Error("expected empty tokens to fail")
	}
	if ValidCSRFToken("abc123", "") {
		t.Error("expected empty cookie token to fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "secret-password" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := VerifyPassword("secret-password", hash); err != nil {
		t.Errorf("expected correct password to verify: %v", err)
	}
	if err := VerifyPassword("wrong-password", hash); err == nil {
		t.Error("expected wrong password to fail")
	}
}
