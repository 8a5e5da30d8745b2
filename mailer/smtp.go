package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPSender sends through an SMTP relay (Brevo's smtp-relay by default).
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
}

func NewSMTPSender(host string, port int, user, pass string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(msg.From.Email))

	m := mail.NewMessage()
	m.SetAddressHeader("From", msg.From.Email, msg.From.Name)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)

	// multipart/alternative when both bodies exist
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}
	d.Timeout = defaultSMTPTimeout
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}
	if s.Port == 465 {
		d.SSL = true
	}

	if err := d.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return messageID, nil
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
