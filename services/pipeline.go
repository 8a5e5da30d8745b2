// services/pipeline.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lashapp-notifier/logger"
	"lashapp-notifier/metrics"
	"lashapp-notifier/models"
	"lashapp-notifier/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run triggers
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

type Authenticator interface {
	Authenticate(ctx context.Context, creds models.Credentials) (models.AuthToken, error)
	Logout(ctx context.Context, token models.AuthToken) error
}

type AgendaSource interface {
	FetchDailyAgenda(ctx context.Context, token models.AuthToken, date string) (models.DailyAgenda, error)
}

type Renderer interface {
	Render(recipient, recipientName string, agenda models.DailyAgenda) (models.RenderedEmail, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, email models.RenderedEmail) models.DispatchResult
}

type SummaryNotifier interface {
	Notify(ctx context.Context, recipientName string, agenda models.DailyAgenda) error
}

// Runner is what the scheduler, the HTTP trigger and the CLI call.
type Runner interface {
	Run(ctx context.Context, trigger string) RunReport
}

type PipelineConfig struct {
	Credentials    models.Credentials
	RecipientEmail string
	RecipientName  string
	Location       *time.Location
}

// PipelineDeps are the collaborators of one pipeline. SMS, Guard and Recorder are optional.
type PipelineDeps struct {
	Auth       Authenticator
	Fetcher    AgendaSource
	Renderer   Renderer
	Dispatcher Dispatcher
	SMS        SummaryNotifier
	Guard      RunGuard
	Recorder   RunRecorder
}

// RunReport summarizes one run. It is also the JSON body of the manual trigger endpoint.
type RunReport struct {
	RunID            string    `json:"runId"`
	Trigger          string    `json:"trigger"`
	Date             string    `json:"date"`
	Outcome          string    `json:"outcome"`
	FailedStage      string    `json:"failedStage,omitempty"`
	Error            string    `json:"error,omitempty"`
	AppointmentCount int       `json:"appointmentCount"`
	TaskCount        int       `json:"taskCount"`
	Provider         string    `json:"provider,omitempty"`
	MessageID        string    `json:"messageId,omitempty"`
	LogoutFailed     bool      `json:"logoutFailed"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`

	err error
}

// Err is the error that ended the run early, or the dispatch error. Nil on delivery.
func (r RunReport) Err() error { return r.err }

// Pipeline runs authenticate → fetch → render → dispatch → logout once per call.
type Pipeline struct {
	deps PipelineDeps
	cfg  PipelineConfig
	log  *zap.Logger
	now  func() time.Time
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig, log *zap.Logger) *Pipeline {
	if deps.Guard == nil {
		deps.Guard = NewLocalRunGuard()
	}
	if deps.Recorder == nil {
		deps.Recorder = NopRunRecorder{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Pipeline{deps: deps, cfg: cfg, log: log, now: time.Now}
}

// Run never panics and never returns an error: every failure is contained,
// logged and reported in the RunReport.
func (p *Pipeline) Run(ctx context.Context, trigger string) (report RunReport) {
	report = RunReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: p.now(),
	}
	report.Date = utils.AgendaDate(report.StartedAt, p.cfg.Location)
	log := p.log.With(logger.RunID(report.RunID), logger.Trigger(trigger), logger.Date(report.Date))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			// keep an outcome that was already decided
			if report.Outcome == "" {
				report.Outcome = models.RunOutcomeAborted
				report.FailedStage = "panic"
				report.err = fmt.Errorf("pipeline panic: %v", r)
				report.Error = report.err.Error()
			}
		}
		p.finish(log, &report)
	}()

	release, ok, err := p.deps.Guard.TryAcquire(ctx)
	switch {
	case err != nil:
		// Better a possible duplicate than a missed day.
		log.Warn("run guard unavailable, running unguarded", logger.Err(err))
		metrics.StageFailures.WithLabelValues(StageGuard).Inc()
	case !ok:
		report.Outcome = models.RunOutcomeSkipped
		log.Warn("another run is in progress, skipping")
		return report
	default:
		defer release()
	}

	log.Info("starting daily notification run")

	// 1. Authenticate
	var token models.AuthToken
	err = p.stage(StageAuthenticate, func() (err error) {
		token, err = p.deps.Auth.Authenticate(ctx, p.cfg.Credentials)
		return err
	})
	if err != nil {
		p.abort(log, &report, StageAuthenticate, err)
		return report
	}

	// 2. Fetch. On failure the token is left to expire.
	var agenda models.DailyAgenda
	err = p.stage(StageFetch, func() (err error) {
		agenda, err = p.deps.Fetcher.FetchDailyAgenda(ctx, token, report.Date)
		return err
	})
	if err != nil {
		p.abort(log, &report, StageFetch, err)
		return report
	}
	report.AppointmentCount = len(agenda.Appointments)
	report.TaskCount = len(agenda.Tasks)

	// 3. Render
	var email models.RenderedEmail
	err = p.stage(StageRender, func() (err error) {
		email, err = p.deps.Renderer.Render(p.cfg.RecipientEmail, p.cfg.RecipientName, agenda)
		return err
	})
	var renderErr *RenderError
	if err != nil && !errors.As(err, &renderErr) {
		err = &RenderError{Err: err}
	}
	if err != nil {
		p.abort(log, &report, StageRender, err)
		p.logout(ctx, log, &report, token)
		return report
	}

	// 4. Dispatch. A failed send does not stop the run.
	var result models.DispatchResult
	if err := p.stage(StageDispatch, func() error {
		result = p.deps.Dispatcher.Dispatch(ctx, email)
		return result.Err
	}); err != nil && result.Err == nil {
		result.Err = &DispatchError{Provider: result.Provider, Err: err}
	}
	report.Provider = result.Provider
	report.MessageID = result.MessageID
	if result.Err != nil {
		report.Outcome = models.RunOutcomeDispatchFailed
		report.FailedStage = StageDispatch
		report.err = result.Err
		report.Error = result.Err.Error()
	} else {
		report.Outcome = models.RunOutcomeDelivered
	}

	// 5. Optional SMS summary
	if p.deps.SMS != nil {
		if err := p.stage(StageSMS, func() error {
			return p.deps.SMS.Notify(ctx, p.cfg.RecipientName, agenda)
		}); err != nil {
			log.Warn("failed to send agenda summary", logger.Stage(StageSMS), logger.Err(err))
		}
	}

	// 6. Logout
	p.logout(ctx, log, &report, token)
	return report
}

func (p *Pipeline) logout(ctx context.Context, log *zap.Logger, report *RunReport, token models.AuthToken) {
	if err := p.stage(StageLogout, func() error {
		return p.deps.Auth.Logout(ctx, token)
	}); err != nil {
		report.LogoutFailed = true
		log.Warn("logout failed, token left to expire", logger.Stage(StageLogout), logger.Err(err))
		return
	}
	log.Debug("logged out")
}

func (p *Pipeline) abort(log *zap.Logger, report *RunReport, stage string, err error) {
	report.Outcome = models.RunOutcomeAborted
	report.FailedStage = stage
	report.err = err
	report.Error = err.Error()
	log.Error("daily notification run aborted", logger.Stage(stage), logger.Err(err))
}

// stage times fn and counts its failure. A panic in fn becomes the stage's error.
func (p *Pipeline) stage(name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			p.log.Error("pipeline stage panicked", logger.Stage(name), zap.Any("panic", r), zap.Stack("stack"))
		}
		metrics.StageDuration.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.StageFailures.WithLabelValues(name).Inc()
		}
	}()
	return fn()
}

func (p *Pipeline) finish(log *zap.Logger, report *RunReport) {
	report.FinishedAt = p.now()
	metrics.PipelineRuns.WithLabelValues(report.Outcome).Inc()
	if report.Outcome == models.RunOutcomeDelivered {
		metrics.LastSuccessfulRun.Set(float64(report.FinishedAt.Unix()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.deps.Recorder.Record(ctx, report.record()); err != nil {
		log.Warn("failed to record run", logger.Err(err))
	}

	log.Info("daily notification run finished",
		logger.String("outcome", report.Outcome),
		logger.Int("appointments", report.AppointmentCount),
		logger.Int("tasks", report.TaskCount),
		logger.Bool("logout_failed", report.LogoutFailed),
		logger.Duration(report.FinishedAt.Sub(report.StartedAt)),
	)
}

func (r RunReport) record() *models.NotificationRun {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		id = uuid.New()
	}
	return &models.NotificationRun{
		ID:               id,
		RunDate:          r.Date,
		Trigger:          r.Trigger,
		Outcome:          r.Outcome,
		FailedStage:      r.FailedStage,
		ErrorMessage:     r.Error,
		Provider:         r.Provider,
		MessageID:        r.MessageID,
		AppointmentCount: r.AppointmentCount,
		TaskCount:        r.TaskCount,
		LogoutFailed:     r.LogoutFailed,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
	}
}
