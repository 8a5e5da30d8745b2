package routes

import (
	"lashapp-notifier/config"
	"lashapp-notifier/controllers"
	"lashapp-notifier/services"
	"lashapp-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Runner   services.Runner
	History  services.RunHistory // nil without a database
	Schedule controllers.NextRunProvider
	// TriggerSecret enables the /api/notifications routes when set.
	TriggerSecret string
	Log           *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(config.RequestLogger(d.Log))

	health := &controllers.HealthController{Schedule: d.Schedule}
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.TriggerSecret == "" {
		return r
	}

	notifications := &controllers.NotificationController{Runner: d.Runner, History: d.History}
	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(d.TriggerSecret))
	{
		api.POST("/notifications/run", notifications.TriggerRun)
		if d.History != nil {
			api.GET("/notifications/runs", notifications.ListRuns)
		}
	}

	return r
}
