package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookcatalog/internal/platform/crypto"
	"bookcatalog/internal/platform/logger"
	"bookcatalog/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func TestHTTPHandler_Login(t *testing.T) {
	tokens := crypto.NewTokens(testSecret, 15*time.Minute, 24*time.Hour)
	users := new(mockUsers)
	users.On("GetByUsername", mock.Anything, "admin").Return(adminUser(t), nil)
	users.On("GetByUsername", mock.Anything, strings.Repeat("u", 300)).Return(user.User{}, user.ErrNotFound)
	handler := NewHTTPHandler(newTestService(users, tokens), logger.Discard())

	longPassword := strings.Repeat("p", 500)
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"success", `{"username":"admin","password":"s3cret-pass"}`, http.StatusOK, "Login successful"},
		{"bad password", `{"username":"admin","password":"wrong"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"long password", `{"username":"admin","password":"` + longPassword + `"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"long unknown username", `{"username":"` + strings.Repeat("u", 300) + `","password":"x"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"blank username", `{"username":" ","password":"x"}`, http.StatusBadRequest, "username: Username must not be blank"},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest, "password: Password must not be blank"},
		{"malformed", `not json`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, w.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, tt.status == http.StatusOK, env.Success)

			if tt.status == http.StatusOK {
				var pair TokenPair
				require.NoError(t, json.Unmarshal(env.Data, &pair))
				assert.NotEmpty(t, pair.AccessToken)
				assert.NotEmpty(t, pair.RefreshToken)
			} else {
				assert.Equal(t, "null", string(env.Data))
			}
		})
	}
}

func TestHTTPHandler_Refresh(t *testing.T) {
	tokens := crypto.NewTokens(testSecret, 15*time.Minute, 24*time.Hour)
	users := new(mockUsers)
	users.On("GetByUsername", mock.Anything, "admin").Return(adminUser(t), nil)
	handler := NewHTTPHandler(newTestService(users, tokens), logger.Discard())

	refresh, err := tokens.IssueRefreshToken("admin")
	require.NoError(t, err)
	access, err := tokens.IssueAccessToken("admin", []string{user.RoleAdmin})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refreshToken":"`+refresh+`"}`)))

		require.Equal(t, http.StatusOK, w.Code)
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "Token refreshed successfully", env.Message)

		var data map[string]string
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NoError(t, tokens.Validate(data["accessToken"], "admin", crypto.AccessToken))
		assert.NotContains(t, data, "refreshToken")
	})

	t.Run("access token in place of refresh", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refreshToken":"`+access+`"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid refresh token")
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "RefreshToken must not be blank")
	})
}
