// services/keepalive.go
package services

import (
	"context"

	"lashapp-notifier/logger"
	"lashapp-notifier/metrics"

	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// KeepAlive pings the backend so its host does not idle it out.
// The result only matters for logs and metrics.
type KeepAlive struct {
	pinger Pinger
	log    *zap.Logger
}

func NewKeepAlive(pinger Pinger, log *zap.Logger) *KeepAlive {
	return &KeepAlive{pinger: pinger, log: log}
}

func (k *KeepAlive) Ping(ctx context.Context) error {
	if err := k.pinger.Ping(ctx); err != nil {
		metrics.KeepAlivePings.WithLabelValues("failed").Inc()
		k.log.Warn("keep-alive ping failed", logger.Err(err))
		return err
	}
	metrics.KeepAlivePings.WithLabelValues("ok").Inc()
	k.log.Debug("keep-alive ping ok")
	return nil
}
