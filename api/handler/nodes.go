package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/probe"
)

// Nodes returns a handler for GET /api/v1/nodes.
//
// Query parameters:
//
//	type     "ipv4" (default) or "ipv6"
//	refresh  "true" bypasses the cached directory
func Nodes(pr *probe.Prober) gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.DefaultQuery("type", "ipv4")
		refresh := c.Query("refresh") == "true"

		env := pr.ListNodes(c.Request.Context(), version, refresh)
		c.JSON(env.Code, env)
	}
}
