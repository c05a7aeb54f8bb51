package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

// SessionDisconnector closes the live connections of a session.
type SessionDisconnector interface {
	DisconnectSession(sessionID string)
}

type AuthController struct {
	sessions service.SessionService
	conns    SessionDisconnector
}

func NewAuthController(sessions service.SessionService, conns SessionDisconnector) *AuthController {
	return &AuthController{
		sessions: sessions,
		conns:    conns,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ConnectionRequest struct {
	Username string `json:"username" binding:"required"`
}

// Login exchanges shop credentials for a session token
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	result, err := ctrl.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *shopapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			message := shopapi.Message(err)
			if message == "" {
				message = "Login failed"
			}
			log.Warn("Login failed", map[string]interface{}{
				"username": req.Username,
				"status":   apiErr.StatusCode,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, message)
			return
		}
		log.Warn("Login failed", map[string]interface{}{
			"username": req.Username,
			"error":    err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "login")
		return
	}

	log.Info("User logged in", map[string]interface{}{
		"username":   result.Session.Username(),
		"session_id": result.Session.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.Session.User.Snapshot().User,
	})
}

// Logout drops the session and closes its notification sockets
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	if err := ctrl.sessions.Logout(c.Request.Context(), session.ID); err != nil {
		log.Warn("Logout failed", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "logout")
		return
	}
	if ctrl.conns != nil {
		ctrl.conns.DisconnectSession(session.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// GetMe returns the user state of the session
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session.User.Snapshot())
}

// AddConnection records a user the session is connected with
// POST /api/v1/auth/connections
func (ctrl *AuthController) AddConnection(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid connection request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "username is required")
		return
	}

	session.User.AddConnection(req.Username)
	c.JSON(http.StatusOK, session.User.Snapshot())
}

// RemoveConnection
// DELETE /api/v1/auth/connections/:username
func (ctrl *AuthController) RemoveConnection(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	session.User.RemoveConnection(c.Param("username"))
	c.JSON(http.StatusOK, session.User.Snapshot())
}
