package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compilestrength/internal/api"
	"compilestrength/internal/logger"
)

type dbPinger interface {
	PingContext(ctx context.Context) error
}

type queuePinger interface {
	Ping(ctx context.Context) error
}

// Health reports 200 only when both the database and the mail queue answer.
func Health(db dbPinger, queue queuePinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := api.HealthResponse{Status: "ok", Database: "ok", Redis: "ok"}
		status := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check: database unreachable", "error", err)
			resp.Database = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		if err := queue.Ping(ctx); err != nil {
			logger.Warn("health check: redis unreachable", "error", err)
			resp.Redis = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, resp)
	}
}

func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
