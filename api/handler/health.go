package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/models"
)

// Version is stamped into health responses. Overridable at build time with
// -ldflags "-X github.com/use-agent/itdog/api/handler.Version=...".
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of sessions are
// live. Always answers 200 so load balancers read the body, not the status.
func Health(stats func() models.PoolStats, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps := stats()

		status := "healthy"
		if ps.MaxSessions > 0 && ps.LiveSessions > int(float64(ps.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: ps,
			Version:   Version,
		})
	}
}
