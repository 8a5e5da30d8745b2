package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// Pipeline

// RunID identifies one pipeline run across all of its log lines.
func RunID(v string) zap.Field { return zap.String("run_id", v) }

func Stage(v string) zap.Field { return zap.String("stage", v) }

// Date is the agenda calendar date (YYYY-MM-DD).
func Date(v string) zap.Field { return zap.String("date", v) }

func Recipient(v string) zap.Field { return zap.String("recipient", v) }

func Provider(v string) zap.Field { return zap.String("provider", v) }

func Trigger(v string) zap.Field { return zap.String("trigger", v) }

func Component(v string) zap.Field { return zap.String("component", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// Generic

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
