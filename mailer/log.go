package mailer

import (
	"context"

	"lashapp-notifier/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender logs emails instead of sending them. Used in development.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	s.log.Info("EMAIL (dev mode - not actually sent)",
		logger.String("message_id", id),
		logger.String("from", formatAddress(msg.From.Name, msg.From.Email)),
		logger.Recipient(msg.To),
		logger.String("subject", msg.Subject),
		logger.String("text", msg.Text),
	)
	return id, nil
}
