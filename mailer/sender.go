// Package mailer sends transactional email through a configured provider.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"lashapp-notifier/config"
	"lashapp-notifier/models"

	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	From    models.SenderIdentity
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender is implemented by every provider.
type Sender interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Send delivers msg and returns the provider's message id.
	Send(ctx context.Context, msg Message) (string, error)
}

// New builds the Sender selected by cfg.Provider.
func New(cfg config.EmailConfig, log *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case config.ProviderResend:
		return NewResendSender(cfg.APIKey), nil
	case config.ProviderSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.APIKey), nil
	case config.ProviderLog:
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// formatAddress renders `Name <email>`, or the bare email when there is no name.
func formatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
