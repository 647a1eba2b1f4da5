package agent

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
	"compilestrength/internal/subscription"
	"compilestrength/internal/usage"
)

type ChatRequest struct {
	Messages  []Message `json:"messages" binding:"required,min=1,dive"`
	AgentType string    `json:"agentType" binding:"required"`
}

type Handler struct {
	runner *Runner
	meter  Meter
}

func NewHandler(runner *Runner, meter Meter) *Handler {
	return &Handler{runner: runner, meter: meter}
}

// Chat streams one coaching turn as server-sent events. Each request
// consumes one aiMessage before the model is called.
func (h *Handler) Chat(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	system, ok := SystemPrompt(req.AgentType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported agent type"})
		return
	}

	ctx := c.Request.Context()

	if _, err := h.meter.IncrementForUser(ctx, usage.KindAIMessage, userID); err != nil {
		var exceeded *usage.QuotaExceededError
		switch {
		case errors.As(err, &exceeded):
			c.JSON(http.StatusPaymentRequired, usage.QuotaExceededBody(exceeded.Quota))
		case errors.Is(err, subscription.ErrNoActiveSubscription):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "An active subscription is required", "kind": usage.KindAIMessage})
		default:
			logger.Error("failed to meter chat message", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start chat"})
		}
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(ev Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.SSEvent(string(ev.Type), ev)
		c.Writer.Flush()
		return nil
	}

	if err := h.runner.Run(ctx, userID, system, req.Messages, emit); err != nil {
		logger.Info("chat stream ended early", "user_id", userID, "error", err)
	}
}
