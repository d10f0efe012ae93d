package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/weslleycarlos/controle-presos/internal/auth"
	"github.com/weslleycarlos/controle-presos/internal/models"
)

const (
	bearerPrefix = "Bearer "

	// SessionCookieName is the httpOnly cookie carrying the session JWT
	// for browser clients
	SessionCookieName = "session"

	// CSRFCookieName is the non-httpOnly cookie the client reads the CSRF
	// token from
	CSRFCookieName = "csrf_token"

	// CSRFHeaderName is the request header that must echo the CSRF cookie
	// on mutating requests
	CSRFHeaderName = "X-CSRF-Token"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidAuthFormat  = errors.New("invalid authorization header format")
	ErrEmptyToken         = errors.New("empty token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrCSRFMismatch       = errors.New("csrf token mismatch")
)

// mutatingMethods are the verbs subject to CSRF protection
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// extractCredential finds the session token on the request. The bearer
// header wins when both transports are present, the cookie is the fallback
// for browser clients.
func extractCredential(c *gin.Context) (token, method string, err error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		token, err = extractBearerToken(authHeader)
		return token, auth.AuthMethodBearer, err
	}

	cookie, cookieErr := c.Cookie(SessionCookieName)
	if cookieErr != nil || cookie == "" {
		return "", "", ErrMissingCredentials
	}

	return cookie, auth.AuthMethodCookie, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// AuthMiddleware validates the session credential for both transports: the
// Authorization bearer header (CLI, API clients) and the httpOnly session
// cookie (web frontend)
func AuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, method, err := extractCredential(c)
		if err != nil {
			var message string
			switch err {
			case ErrMissingCredentials:
				message = "Missing credentials"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			default:
				message = "Unauthorized"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := auth.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate session token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Verify user exists in database
		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		// Set session data
		sessionData := &auth.SessionData{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role,
			AuthMethod: method,
		}
		setSession(c, sessionData)

		c.Next()
	}
}

// CSRFMiddleware enforces the double-submit CSRF check on mutating requests
// authenticated through the session cookie. Bearer requests are exempt: a
// cross-site attacker cannot set an Authorization header, so the header is
// itself proof the request came from the legitimate client.
func CSRFMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutatingMethods[c.Request.Method] {
			c.Next()
			return
		}

		sessionData, exists := GetSessionData(c)
		if !exists || sessionData.AuthMethod != auth.AuthMethodCookie {
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(CSRFCookieName)
		if err != nil || cookieToken == "" {
			respondWithError(c, log, http.StatusForbidden, ErrCSRFMismatch, "Missing CSRF token")
			return
		}

		headerToken := c.GetHeader(CSRFHeaderName)
		if !auth.ValidCSRFToken(headerToken, cookieToken) {
			respondWithError(c, log, http.StatusForbidden, ErrCSRFMismatch, "Invalid CSRF token")
			return
		}

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if sessionData.Role != models.RoleAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}
