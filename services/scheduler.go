// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"lashapp-notifier/config"
	"lashapp-notifier/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires the daily pipeline and the backend keep-alive from one cron.
type Scheduler struct {
	cron      *cron.Cron
	runner    Runner
	keepAlive *KeepAlive
	cfg       config.ScheduleConfig
	log       *zap.Logger

	dailyID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(runner Runner, keepAlive *KeepAlive, cfg config.ScheduleConfig, log *zap.Logger) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	cl := logger.Cron(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		runner:    runner,
		keepAlive: keepAlive,
		cfg:       cfg,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers both entries and starts the cron in its own goroutine.
func (s *Scheduler) Start() error {
	daily := cron.NewChain(cron.SkipIfStillRunning(logger.Cron(s.log))).Then(cron.FuncJob(func() {
		s.log.Info("running scheduled daily notification")
		s.runner.Run(s.ctx, TriggerSchedule)
	}))

	id, err := s.cron.AddJob(s.cfg.Cron, daily)
	if err != nil {
		return fmt.Errorf("schedule daily notification %q: %w", s.cfg.Cron, err)
	}
	s.dailyID = id

	if s.keepAlive != nil && s.cfg.KeepAliveInterval > 0 {
		s.cron.Schedule(cron.Every(s.cfg.KeepAliveInterval), cron.FuncJob(func() {
			s.keepAlive.Ping(s.ctx)
		}))
	}

	s.cron.Start()
	s.log.Info("notification scheduler started",
		logger.String("cron", s.cfg.Cron),
		logger.String("timezone", s.cfg.TimezoneName),
		logger.String("next_run", s.NextRun().Format(time.RFC3339)),
	)
	return nil
}

// NextRun is the next daily trigger time, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.dailyID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.dailyID).Next
}

// Stop stops new triggers and waits for a running job until ctx is done,
// then cancels whatever is still in flight.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out, cancelling running job")
	}
	s.cancel()
}
