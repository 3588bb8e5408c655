package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/api/handler"
	"github.com/use-agent/itdog/api/middleware"
	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/probe"
	"github.com/use-agent/itdog/session"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(pr *probe.Prober, pool *session.Pool, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(pool.Stats, startTime))

	// Protected group: auth, then rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Measurements
	protected.POST("/measure", handler.Measure(pr))

	// Vantage directory
	protected.GET("/nodes", handler.Nodes(pr))

	return r
}
