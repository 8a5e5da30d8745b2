// services/sms_notifier.go
package services

import (
	"context"
	"fmt"

	"lashapp-notifier/config"
	"lashapp-notifier/logger"
	"lashapp-notifier/metrics"
	"lashapp-notifier/models"
	"lashapp-notifier/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// messageCreator is the slice of the Twilio API the notifier uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSNotifier sends a one-line agenda summary through Twilio on the channel
// chosen by config.TwilioConfig.Channel.
type SMSNotifier struct {
	client  messageCreator
	channel string
	from    string
	to      string
	log     *zap.Logger
}

func NewSMSNotifier(cfg config.TwilioConfig, log *zap.Logger) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newSMSNotifier(client.Api, cfg, log)
}

func newSMSNotifier(client messageCreator, cfg config.TwilioConfig, log *zap.Logger) *SMSNotifier {
	cfg.To = utils.CleanPhone(cfg.To)
	channel, from := cfg.Channel()
	return &SMSNotifier{client: client, channel: channel, from: from, to: cfg.To, log: log}
}

// SummaryText is the message body for agenda.
func SummaryText(recipientName string, agenda models.DailyAgenda) string {
	return fmt.Sprintf("Bom dia, %s! Hoje: %d agendamento(s) e %d tarefa(s). Detalhes no seu email.",
		recipientName, len(agenda.Appointments), len(agenda.Tasks))
}

func (n *SMSNotifier) Notify(ctx context.Context, recipientName string, agenda models.DailyAgenda) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	channel := n.channel
	to, from := n.to, n.from
	if channel == "whatsapp" {
		to = "whatsapp:" + to
		from = "whatsapp:" + from
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(SummaryText(recipientName, agenda))

	resp, err := n.client.CreateMessage(params)
	if err != nil {
		metrics.SMSSent.WithLabelValues(channel, "failed").Inc()
		return fmt.Errorf("twilio %s: %w", channel, err)
	}
	metrics.SMSSent.WithLabelValues(channel, "sent").Inc()

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.log.Info("agenda summary sent", logger.String("channel", channel), logger.String("sid", sid))
	return nil
}
