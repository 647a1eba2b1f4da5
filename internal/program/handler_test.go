package program

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"compilestrength/internal/api"
	"compilestrength/internal/auth"
)

func setupRouter(repo Repository, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			auth.SetIdentity(c, owner)
			c.Next()
		})
	}
	h := NewHandler(NewService(repo, nil))
	r.POST("/save-routine", h.SaveRoutine)
	r.GET("/programs", h.List)
	r.GET("/programs/:id", h.Get)
	return r
}

func saveBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestHandler_SaveRoutine(t *testing.T) {
	repo := new(MockRepository)
	repo.On("SaveRoutine", mock.Anything, 1, mock.Anything).Return(10, true, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/save-routine", saveBody(t, map[string]any{"routine": pushRoutine()}))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(repo, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"programId":10,"created":true}`, w.Body.String())
}

func TestHandler_SaveRoutine_ValidationDetails(t *testing.T) {
	repo := new(MockRepository)
	r := pushRoutine()
	r.Days[0].Exercises[0].RestSeconds = 10

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/save-routine", saveBody(t, map[string]any{"routine": r}))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(repo, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body api.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "days[0].exercises[0].restSeconds", body.Details[0].Field)
	assert.Equal(t, "gte", body.Details[0].Code)
}

func TestHandler_SaveRoutine_MissingRoutine(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/save-routine", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(new(MockRepository), true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SaveRoutine_Unauthenticated(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/save-routine", saveBody(t, map[string]any{"routine": pushRoutine()}))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(new(MockRepository), false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GetNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetForUser", mock.Anything, 1, 99).Return(nil, ErrProgramNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/programs/99", nil)
	setupRouter(repo, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_List(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByUser", mock.Anything, 1).Return([]Program{{ID: 10, Name: "Push"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/programs", nil)
	setupRouter(repo, true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Push"`)
}
