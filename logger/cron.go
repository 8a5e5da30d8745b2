package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes robfig/cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

// Cron adapts l to the cron.Logger interface.
func Cron(l *zap.Logger) cron.Logger {
	return cronLogger{s: l.Sugar()}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
