package main

import (
	"fmt"

	"lashapp-notifier/config"
	"lashapp-notifier/logger"
	"lashapp-notifier/mailer"
	"lashapp-notifier/metrics"
	"lashapp-notifier/services"
)

// app holds the wired pipeline and the resources to release on exit.
type app struct {
	pipeline  *services.Pipeline
	keepAlive *services.KeepAlive
	history   services.RunHistory
	closers   []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{}

	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	api := services.NewAPIClient(cfg.APIBaseURL, cfg.HTTPTimeout)

	sender, err := mailer.New(cfg.Email, logger.Named("mailer"))
	if err != nil {
		return nil, err
	}

	deps := services.PipelineDeps{
		Auth:       api,
		Fetcher:    services.NewAgendaFetcher(api),
		Renderer:   services.NewAgendaRenderer(cfg.Email.SenderName),
		Dispatcher: services.NewEmailDispatcher(sender, cfg.Email.Sender(), cfg.HTTPTimeout, logger.Named("dispatcher")),
	}

	if cfg.Twilio.Enabled() {
		deps.SMS = services.NewSMSNotifier(cfg.Twilio, logger.Named("sms"))
	}

	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		deps.Guard = services.NewRedisRunGuard(client, "", 0)
	}

	if cfg.DatabaseURL != "" {
		db, err := config.ConnectDB(cfg.DatabaseURL, logger.Named("db"))
		if err != nil {
			a.Close()
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		recorder := services.NewGormRunRecorder(db)
		deps.Recorder = recorder
		a.history = recorder
	}

	a.pipeline = services.NewPipeline(deps, services.PipelineConfig{
		Credentials:    cfg.Credentials,
		RecipientEmail: cfg.Email.RecipientEmail,
		RecipientName:  cfg.Email.RecipientName,
		Location:       cfg.Schedule.Location,
	}, logger.Named("pipeline"))
	a.keepAlive = services.NewKeepAlive(api, logger.Named("keepalive"))

	logger.L().Info("notifier configured",
		logger.Provider(sender.Name()),
		logger.Bool("sms", cfg.Twilio.Enabled()),
		logger.Bool("redis_guard", cfg.RedisURL != ""),
		logger.Bool("run_log", cfg.DatabaseURL != ""),
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.L().Warn("close", logger.Err(err))
		}
	}
}
