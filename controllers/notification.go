// controllers/notification.go
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"lashapp-notifier/models"
	"lashapp-notifier/services"
	"lashapp-notifier/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// NotificationController exposes manual runs and the run history.
type NotificationController struct {
	Runner  services.Runner
	History services.RunHistory
}

// TriggerRun runs the daily pipeline now and returns its report.
func (n *NotificationController) TriggerRun(c *gin.Context) {
	// A disconnecting client must not cut the run in half.
	ctx := context.WithoutCancel(c.Request.Context())
	report := n.Runner.Run(ctx, services.TriggerManual)

	switch report.Outcome {
	case models.RunOutcomeSkipped:
		c.JSON(http.StatusConflict, report)
	case models.RunOutcomeAborted:
		c.JSON(http.StatusBadGateway, report)
	default:
		c.JSON(http.StatusOK, report)
	}
}

// ListRuns returns the latest recorded runs, newest first.
func (n *NotificationController) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(v, maxRunsLimit)
	}

	runs, err := n.History.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []models.NotificationRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
