package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
)

// RequestLoggingMiddleware logs one line per request. Streaming chat requests
// are logged when the stream ends.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		kv := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := auth.GetUserID(c); ok {
			kv = append(kv, "user_id", userID)
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("HTTP request", kv...)
		case len(c.Errors) > 0:
			logger.Warn("HTTP request", append(kv, "errors", c.Errors.String())...)
		default:
			logger.Info("HTTP request", kv...)
		}
	}
}
