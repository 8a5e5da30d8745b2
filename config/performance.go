package config

import (
	"time"

	"lashapp-notifier/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowRequest = 200 * time.Millisecond

// RequestLogger logs every request with its latency and flags slow ones.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		fields := []zap.Field{
			logger.Method(c.Request.Method),
			logger.Path(c.Request.URL.Path),
			logger.Status(c.Writer.Status()),
			logger.Duration(latency),
			logger.ClientIP(c.ClientIP()),
		}

		// Manual runs block on the backend and the provider, so they are always slow.
		if latency > slowRequest && c.FullPath() != "/api/notifications/run" {
			log.Warn("slow request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
