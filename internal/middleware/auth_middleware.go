package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/util"
)

// Context keys for session information
const (
	SessionKey   = "session"
	SessionIDKey = "session_id"
	UsernameKey  = "username"
	UserRoleKey  = "user_role"
)

// SessionLookup resolves the session a token points at.
type SessionLookup interface {
	Get(sessionID string) (*service.Session, error)
	Touch(sessionID string)
}

type AuthMiddleware struct {
	jwtSecret string
	sessions  SessionLookup
}

func NewAuthMiddleware(jwtSecret string, sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		sessions:  sessions,
	}
}

// Authenticate requires a valid session token. The token is read from the Authorization
// header, or from the token query parameter for WebSocket upgrades.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "Please log in")
				c.Abort()
				return
			}
			log.Debug("Using token from query parameter", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Your login has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid session token")
			}
			c.Abort()
			return
		}

		session, err := m.sessions.Get(claims.SessionID)
		if err != nil {
			log.Warn("Session not found for token", map[string]interface{}{
				"path":       c.Request.URL.Path,
				"session_id": claims.SessionID,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthSessionExpired, "Your session has expired, please log in again")
			c.Abort()
			return
		}
		m.sessions.Touch(session.ID)
		setSession(c, session)

		log.Debug("Session authenticated", map[string]interface{}{
			"session_id": session.ID,
			"username":   session.Username(),
		})

		c.Next()
	}
}

// OptionalAuthenticate attaches the session when a valid token is present and
// continues as a guest otherwise.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("Invalid authorization header format - continuing as guest", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}

		claims, err := util.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		session, err := m.sessions.Get(claims.SessionID)
		if err != nil {
			c.Next()
			return
		}
		m.sessions.Touch(session.ID)
		setSession(c, session)

		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "Role information not found")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		username, _ := GetUsername(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"username":       username,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "You do not have permission to do that")
		c.Abort()
	}
}

func setSession(c *gin.Context, session *service.Session) {
	c.Set(SessionKey, session)
	c.Set(SessionIDKey, session.ID)
	c.Set(UsernameKey, session.Username())
	c.Set(UserRoleKey, session.Role())
}

// GetSession extracts the authenticated session from context
func GetSession(c *gin.Context) (*service.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil, false
	}
	session, ok := v.(*service.Session)
	return session, ok
}

func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	return v.(string), true
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	v, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	return v.(model.UserRole), true
}
