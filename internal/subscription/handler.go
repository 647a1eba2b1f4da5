package subscription

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
)

const signatureHeader = "X-Signature"

type Handler struct {
	service       Service
	webhookSecret string
}

func NewHandler(service Service, webhookSecret string) *Handler {
	return &Handler{service: service, webhookSecret: webhookSecret}
}

// Webhook receives billing provider events. Non-subscription events are
// acknowledged with 200 and otherwise ignored.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	if h.webhookSecret != "" && !validSignature(h.webhookSecret, body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	outcome, err := h.service.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrMissingPayload):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("webhook processing failed", "event", event.Meta.EventName, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": outcome})
}

func validSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *Handler) GetMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sub, err := h.service.GetActive(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		logger.Error("get subscription failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subs, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}
