package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"lashapp-notifier/models"
	"lashapp-notifier/utils"

	"github.com/robfig/cron/v3"
)

const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	ProviderLog    = "log"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	APIBaseURL  string
	Credentials models.Credentials
	HTTPTimeout time.Duration

	Email    EmailConfig
	Schedule ScheduleConfig
	Twilio   TwilioConfig

	DatabaseURL      string
	RedisURL         string
	TriggerJWTSecret string
}

type EmailConfig struct {
	Provider string
	APIKey   string

	SenderName    string
	SenderAddress string

	RecipientEmail string
	RecipientName  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
}

func (e EmailConfig) Sender() models.SenderIdentity {
	return models.SenderIdentity{Name: e.SenderName, Email: e.SenderAddress}
}

type ScheduleConfig struct {
	Cron              string
	TimezoneName      string
	Location          *time.Location
	KeepAliveInterval time.Duration
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string // SMS sender
	WhatsAppNumber string // WhatsApp sender, without the whatsapp: prefix
	To             string
}

// Channel picks WhatsApp for an E.164 destination when a WhatsApp sender is
// configured, SMS otherwise.
func (t TwilioConfig) Channel() (channel, from string) {
	if strings.HasPrefix(t.To, "+") && t.WhatsAppNumber != "" {
		return "whatsapp", t.WhatsAppNumber
	}
	return "sms", t.PhoneNumber
}

// Enabled reports whether the SMS summary should be sent.
func (t TwilioConfig) Enabled() bool {
	_, from := t.Channel()
	return t.AccountSID != "" && t.AuthToken != "" && t.To != "" && from != ""
}

// Load reads the process environment. Call godotenv.Load before it to pick up a .env file.
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from getenv. Every problem is reported at once.
func FromEnv(getenv func(string) string) (*Config, error) {
	var errs []error
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	required := func(key string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is not set", key))
		}
		return v
	}
	duration := func(key, def string) time.Duration {
		raw := get(key, def)
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		}
		return d
	}

	cfg := &Config{
		Env:      get("APP_ENV", "dev"),
		LogLevel: get("LOG_LEVEL", "info"),
		Port:     get("PORT", "3000"),

		APIBaseURL: strings.TrimRight(required("API_BASE_URL"), "/"),
		Credentials: models.Credentials{
			Username: required("API_USERNAME"),
			Password: required("API_PASSWORD"),
		},
		HTTPTimeout: duration("HTTP_TIMEOUT", "15s"),

		DatabaseURL:      get("DB_URL", ""),
		RedisURL:         get("REDIS_URL", ""),
		TriggerJWTSecret: get("TRIGGER_JWT_SECRET", ""),
	}

	if cfg.APIBaseURL != "" {
		if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("API_BASE_URL: %q is not an absolute URL", cfg.APIBaseURL))
		}
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %q is not a number", cfg.Port))
	}

	// Email
	cfg.Email = EmailConfig{
		Provider:       strings.ToLower(get("EMAIL_PROVIDER", ProviderResend)),
		SenderName:     get("EMAIL_SENDER_NAME", "Lash App"),
		SenderAddress:  required("EMAIL_SENDER_ADDRESS"),
		RecipientEmail: required("EMAIL_TO_NOTIFY"),
		RecipientName:  required("EMAIL_TO_NOTIFY_NAME"),
		SMTPHost:       get("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPUsername:   get("SMTP_USERNAME", ""),
	}
	switch cfg.Email.Provider {
	case ProviderResend, ProviderSMTP:
		cfg.Email.APIKey = required("EMAIL_API_KEY")
	case ProviderLog:
		cfg.Email.APIKey = get("EMAIL_API_KEY", "")
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER: unknown provider %q", cfg.Email.Provider))
	}
	smtpPort := get("SMTP_PORT", "587")
	if p, err := strconv.Atoi(smtpPort); err != nil || p <= 0 {
		errs = append(errs, fmt.Errorf("SMTP_PORT: %q is not a valid port", smtpPort))
	} else {
		cfg.Email.SMTPPort = p
	}
	if cfg.Email.SMTPUsername == "" {
		cfg.Email.SMTPUsername = cfg.Email.SenderAddress
	}
	for key, addr := range map[string]string{
		"EMAIL_SENDER_ADDRESS": cfg.Email.SenderAddress,
		"EMAIL_TO_NOTIFY":      cfg.Email.RecipientEmail,
	} {
		if addr != "" && !utils.ValidateEmail(addr) {
			errs = append(errs, fmt.Errorf("%s: %q is not a valid email", key, addr))
		}
	}

	// Schedule
	cfg.Schedule = ScheduleConfig{
		Cron:              get("NOTIFY_CRON", "0 5 * * *"),
		TimezoneName:      get("NOTIFY_TIMEZONE", "America/Sao_Paulo"),
		KeepAliveInterval: duration("KEEPALIVE_INTERVAL", "1m"),
	}
	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		errs = append(errs, fmt.Errorf("NOTIFY_CRON: %w", err))
	}
	loc, err := time.LoadLocation(cfg.Schedule.TimezoneName)
	if err != nil {
		errs = append(errs, fmt.Errorf("NOTIFY_TIMEZONE: %w", err))
	}
	cfg.Schedule.Location = loc

	// Twilio is all or nothing
	cfg.Twilio = TwilioConfig{
		AccountSID:     get("TWILIO_ACCOUNT_SID", ""),
		AuthToken:      get("TWILIO_AUTH_TOKEN", ""),
		PhoneNumber:    get("TWILIO_PHONE_NUMBER", ""),
		WhatsAppNumber: strings.TrimPrefix(get("TWILIO_WHATSAPP_NUMBER", ""), "whatsapp:"),
		To:             get("SMS_TO_NOTIFY", ""),
	}
	if anySet(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cfg.Twilio.WhatsAppNumber, cfg.Twilio.To) && !cfg.Twilio.Enabled() {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and SMS_TO_NOTIFY must be set together with TWILIO_WHATSAPP_NUMBER (for a +E.164 destination) or TWILIO_PHONE_NUMBER"))
	}
	if cfg.Twilio.To != "" && !utils.ValidatePhone(cfg.Twilio.To) {
		errs = append(errs, fmt.Errorf("SMS_TO_NOTIFY: %q is not a valid phone number", cfg.Twilio.To))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func anySet(values ...string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}
