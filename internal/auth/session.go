package auth

// Credential transports recognized by the auth middleware
const (
	AuthMethodBearer = "bearer" // Authorization header (CLI, API clients)
	AuthMethodCookie = "cookie" // httpOnly session cookie (web frontend)
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	AuthMethod string `json:"auth_method"` // "bearer", "cookie"
}
