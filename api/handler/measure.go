package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/models"
	"github.com/use-agent/itdog/probe"
)

// Measure returns a handler for POST /api/v1/measure.
//
// The prober folds every outcome into an envelope whose code doubles as
// the HTTP status, so the handler only parses the request and relays.
func Measure(pr *probe.Prober) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MeasureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.Rejected(err.Error()))
			return
		}

		env := pr.RunMeasurement(c.Request.Context(), &req)
		c.JSON(env.Code, env)
	}
}
