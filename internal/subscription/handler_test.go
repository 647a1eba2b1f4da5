package subscription

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"compilestrength/internal/auth"
)

const ignoredEvent = `{"meta":{"event_name":"order_created"},"data":{"id":"1","attributes":{}}}`

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func newRouter(repo Repository, secret string, identity *auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo), secret)
	r := gin.New()
	r.POST("/billing/webhook", h.Webhook)
	r.GET("/subscriptions/me", func(c *gin.Context) {
		if identity != nil {
			auth.SetIdentity(c, *identity)
		}
		h.GetMine(c)
	})
	return r
}

func TestWebhook_Signature(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		wantStatus int
	}{
		{"valid", sign("whsec", ignoredEvent), http.StatusOK},
		{"wrong", sign("other", ignoredEvent), http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(ignoredEvent))
			if tt.signature != "" {
				req.Header.Set("X-Signature", tt.signature)
			}
			w := httptest.NewRecorder()
			newRouter(new(MockRepository), "whsec", nil).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestWebhook_NoSecretSkipsVerification(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(ignoredEvent))
	w := httptest.NewRecorder()
	newRouter(new(MockRepository), "", nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"ignored"}`, w.Body.String())
}

func TestWebhook_UpdateForUnknownSubscription(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpdateFromProvider", mock.Anything, "404", StatusPaused, (*int)(nil), mock.Anything, mock.Anything, mock.Anything).
		Return(nil, ErrSubscriptionNotFound)

	body := `{"meta":{"event_name":"subscription_paused"},"data":{"id":"404","attributes":{"status":"paused"}}}`
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	newRouter(repo, "", nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhook_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(`{`))
	w := httptest.NewRecorder()
	newRouter(new(MockRepository), "", nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMine(t *testing.T) {
	t.Run("no active subscription", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetActiveByUser", mock.Anything, 7).Return(nil, ErrNoActiveSubscription)

		w := httptest.NewRecorder()
		newRouter(repo, "", &auth.Identity{UserID: 7}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/me", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(new(MockRepository), "", nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWebhook_CreatedWithoutAnchor(t *testing.T) {
	body := `{"meta":{"event_name":"subscription_created","custom_data":{"user_id":7}},"data":{"id":"5","attributes":{"status":"active"}}}`
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	newRouter(new(MockRepository), "", nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
