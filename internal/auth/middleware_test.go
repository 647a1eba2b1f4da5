package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	refresh, err := GenerateRefreshToken(testIdentity, testSecret)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"Refresh token", "Bearer " + refresh, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			AuthMiddleware(testSecret)(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := GenerateAccessToken(testIdentity, testSecret)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	var got Identity
	router.GET("/me", func(c *gin.Context) {
		got, _ = GetIdentity(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testIdentity, got)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userRole       any
		requiredRole   string
		expectedStatus int
	}{
		{"Correct role", "admin", "admin", http.StatusOK},
		{"Missing role", nil, "admin", http.StatusUnauthorized},
		{"Wrong role type", 123, "admin", http.StatusUnauthorized},
		{"Insufficient role", "member", "admin", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.userRole != nil {
				c.Set("user_role", tt.userRole)
			}
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RequireRole(tt.requiredRole)(c)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		userID   any
		expected int
		ok       bool
	}{
		{"Valid ID", 42, 42, true},
		{"Missing ID", nil, 0, false},
		{"Wrong type", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.userID != nil {
				c.Set("user_id", tt.userID)
			}

			id, ok := GetUserID(c)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
