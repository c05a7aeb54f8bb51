package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Login_Success(t *testing.T) {
	api := setupTestAPI(t)
	api.fake.AddUser("alice", "secret1", model.RoleVendor)

	w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, model.RoleVendor, resp.User.Role)
	assert.Equal(t, model.RoleVendor, resp.User.Type)
	assert.Equal(t, 1, api.sessions.Count())
}

func TestAuthController_Login_WelcomeToast(t *testing.T) {
	api := setupTestAPI(t)
	_, sessionID := api.login(t, "alice", model.RoleCustomer)

	assert.Equal(t, []string{"success: Welcome back, alice!"}, api.notifier.messages(sessionID))
}

func TestAuthController_Login_Validation(t *testing.T) {
	api := setupTestAPI(t)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"missing username", gin.H{"password": "secret1"}, "VALIDATION_REQUIRED"},
		{"missing password", gin.H{"username": "alice"}, "VALIDATION_REQUIRED"},
		{"short password", gin.H{"username": "alice", "password": "abc"}, "VALIDATION_TOO_SHORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCodeOf(t, w))
		})
	}
	assert.Empty(t, api.fake.Requests(), "validation failures must not reach the shop API")
}

func TestAuthController_Login_WrongPassword(t *testing.T) {
	api := setupTestAPI(t)
	api.fake.AddUser("alice", "secret1", model.RoleCustomer)

	w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "wrong-pass"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", resp.Error)
	assert.Equal(t, "No active account found with the given credentials", resp.Message)
	assert.Equal(t, 0, api.sessions.Count())
}

func TestAuthController_Login_RejectedWithoutDetail(t *testing.T) {
	api := setupTestAPI(t)
	api.fake.AddUser("alice", "secret1", model.RoleCustomer)
	api.fake.FailNext(http.MethodPost, "/token/", http.StatusUnauthorized, `{}`)

	w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", resp.Error)
	assert.Equal(t, "Login failed", resp.Message)
	assert.Equal(t, 0, api.sessions.Count())
}

func TestAuthController_Login_UpstreamDown(t *testing.T) {
	api := setupTestAPI(t)
	api.fake.FailNext(http.MethodPost, "/token/", http.StatusInternalServerError, `{}`)

	w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret1"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "INTERNAL_EXTERNAL_API", errorCodeOf(t, w))
}

func TestAuthController_GetMe(t *testing.T) {
	api := setupTestAPI(t)
	token, _ := api.login(t, "alice", model.RoleCustomer)

	w := api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap service.UserSnapshot
	decode(t, w, &snap)
	assert.True(t, snap.IsAuthenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
}

func TestAuthController_GetMe_Unauthorized(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_Logout(t *testing.T) {
	api := setupTestAPI(t)
	token, sessionID := api.login(t, "alice", model.RoleCustomer)

	w := api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{sessionID}, api.conns.disconnected)
	assert.Equal(t, 0, api.sessions.Count())

	w = api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_SESSION_EXPIRED", errorCodeOf(t, w))
}

func TestAuthController_Connections(t *testing.T) {
	api := setupTestAPI(t)
	token, _ := api.login(t, "vera", model.RoleVendor)

	api.do(t, http.MethodPost, "/api/v1/auth/connections", token, gin.H{"username": "carl"})
	w := api.do(t, http.MethodPost, "/api/v1/auth/connections", token, gin.H{"username": "carl"})
	require.Equal(t, http.StatusOK, w.Code)

	var snap service.UserSnapshot
	decode(t, w, &snap)
	assert.Equal(t, []string{"carl"}, snap.Connections)

	w = api.do(t, http.MethodDelete, "/api/v1/auth/connections/carl", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &snap)
	assert.Empty(t, snap.Connections)

	w = api.do(t, http.MethodPost, "/api/v1/auth/connections", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
