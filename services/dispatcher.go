// services/dispatcher.go
package services

import (
	"context"
	"fmt"
	"time"

	"lashapp-notifier/logger"
	"lashapp-notifier/mailer"
	"lashapp-notifier/metrics"
	"lashapp-notifier/models"

	"go.uber.org/zap"
)

// EmailDispatcher hands rendered emails to the configured provider. It never fails
// the caller: the outcome is reported in the DispatchResult and in the logs.
type EmailDispatcher struct {
	sender  mailer.Sender
	from    models.SenderIdentity
	timeout time.Duration
	log     *zap.Logger
}

func NewEmailDispatcher(sender mailer.Sender, from models.SenderIdentity, timeout time.Duration, log *zap.Logger) *EmailDispatcher {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &EmailDispatcher{sender: sender, from: from, timeout: timeout, log: log}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, email models.RenderedEmail) (result models.DispatchResult) {
	provider := d.sender.Name()
	result.Provider = provider
	log := d.log.With(logger.Provider(provider), logger.Recipient(email.Recipient))

	defer func() {
		if r := recover(); r != nil {
			result.Err = &DispatchError{Provider: provider, Err: fmt.Errorf("panic: %v", r)}
		}
		if result.Err != nil {
			metrics.EmailsSent.WithLabelValues(provider, "failed").Inc()
			log.Error("failed to send notification email", logger.Err(result.Err))
			return
		}
		metrics.EmailsSent.WithLabelValues(provider, "sent").Inc()
		log.Info("notification email sent", logger.String("message_id", result.MessageID))
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id, err := d.sender.Send(ctx, mailer.Message{
		From:    d.from,
		To:      email.Recipient,
		ToName:  email.RecipientName,
		Subject: email.Subject,
		HTML:    email.HTMLBody,
		Text:    email.TextBody,
	})
	if err != nil {
		result.Err = &DispatchError{Provider: provider, Err: err}
		return result
	}
	result.MessageID = id
	return result
}
