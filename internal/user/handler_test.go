package user

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"compilestrength/internal/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) GetByID(ctx context.Context, userID int) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*User), args.Error(2)
}

func setupRouter(svc Service, identity *auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if identity != nil {
			auth.SetIdentity(c, *identity)
		}
		c.Next()
	})
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/me", h.GetMe)
	return r
}

func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*MockService)
		wantStatus int
	}{
		{
			name: "created",
			body: `{"name":"Alex","email":"a@example.com","password":"password123"}`,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, RegisterRequest{Name: "Alex", Email: "a@example.com", Password: "password123"}).
					Return(&User{ID: 1, Name: "Alex", Email: "a@example.com"}, "access", "refresh", nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: `{"name":"Alex","email":"a@example.com","password":"password123"}`,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, "", "", ErrEmailExists)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "short password",
			body:       `{"name":"Alex","email":"a@example.com","password":"short"}`,
			setup:      func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			setupRouter(svc, nil).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	svc := new(MockService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, "", "", ErrInvalidCredentials)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GetMe(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		setupRouter(new(MockService), nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ok", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetByID", mock.Anything, 7).Return(&User{ID: 7, Name: "Alex", Email: "a@example.com", PasswordHash: "secret"}, nil)

		w := httptest.NewRecorder()
		setupRouter(svc, &auth.Identity{UserID: 7}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Alex"`)
		assert.NotContains(t, w.Body.String(), "secret")
	})
}
