package usage

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
	"compilestrength/internal/subscription"
)

// Incrementer consumes one unit of a user's counter.
type Incrementer interface {
	IncrementForUser(ctx context.Context, kind Kind, userID int) (*Quota, error)
}

type Handler struct {
	service Service
	meter   Incrementer
}

// NewHandler serves usage endpoints. Increments go through meter, which may
// wrap service; a nil meter uses service directly.
func NewHandler(service Service, meter Incrementer) *Handler {
	if meter == nil {
		meter = service
	}
	return &Handler{service: service, meter: meter}
}

// QuotaExceededBody is the 402 payload shared by every metered endpoint.
func QuotaExceededBody(q *Quota) gin.H {
	return gin.H{
		"error":    "Usage limit reached for this period",
		"kind":     q.Kind,
		"used":     q.Used,
		"limit":    q.Limit,
		"resetsAt": q.ResetsAt,
	}
}

func (h *Handler) Current(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) History(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	periods, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, periods)
}

func (h *Handler) Check(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quota, err := h.service.CheckQuotaForUser(c.Request.Context(), kind, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quota)
}

func (h *Handler) Increment(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quota, err := h.meter.IncrementForUser(c.Request.Context(), kind, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quota)
}

func (h *Handler) Events(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	periodID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period ID"})
		return
	}

	events, err := h.service.Events(c.Request.Context(), userID, periodID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// UserSummary reports another user's current period. Admin only.
func (h *Handler) UserSummary(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var qe *QuotaExceededError
	switch {
	case errors.As(err, &qe):
		c.JSON(http.StatusPaymentRequired, QuotaExceededBody(qe.Quota))
	case errors.Is(err, subscription.ErrNoActiveSubscription):
		c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, ErrPeriodNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Usage period not found"})
	default:
		logger.Error("usage request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process usage"})
	}
}
