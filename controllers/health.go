// controllers/health.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type NextRunProvider interface {
	NextRun() time.Time
}

type HealthController struct {
	Schedule NextRunProvider
}

func (h *HealthController) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.Schedule != nil {
		if next := h.Schedule.NextRun(); !next.IsZero() {
			body["nextRun"] = next.Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, body)
}
