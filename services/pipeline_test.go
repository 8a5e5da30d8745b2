package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lashapp-notifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAuth struct {
	token     models.AuthToken
	authErr   error
	logoutErr error

	authCalls    int
	logoutCalls  int
	loggedOutTok models.AuthToken
}

func (f *fakeAuth) Authenticate(ctx context.Context, creds models.Credentials) (models.AuthToken, error) {
	f.authCalls++
	if f.authErr != nil {
		return "", f.authErr
	}
	return f.token, nil
}

func (f *fakeAuth) Logout(ctx context.Context, token models.AuthToken) error {
	f.logoutCalls++
	f.loggedOutTok = token
	return f.logoutErr
}

type fakeFetcher struct {
	agenda models.DailyAgenda
	err    error
	calls  int
	token  models.AuthToken
	date   string
}

func (f *fakeFetcher) FetchDailyAgenda(ctx context.Context, token models.AuthToken, date string) (models.DailyAgenda, error) {
	f.calls++
	f.token = token
	f.date = date
	if f.err != nil {
		return models.DailyAgenda{}, f.err
	}
	return f.agenda, nil
}

type fakeRenderer struct {
	err   error
	calls int
	panic bool
}

func (f *fakeRenderer) Render(recipient, name string, agenda models.DailyAgenda) (models.RenderedEmail, error) {
	f.calls++
	if f.panic {
		panic("template exploded")
	}
	if f.err != nil {
		return models.RenderedEmail{}, f.err
	}
	return models.RenderedEmail{Recipient: recipient, RecipientName: name, Subject: "s", HTMLBody: "<p>hi</p>"}, nil
}

type fakeDispatcher struct {
	err   error
	panic bool
	calls int
	sent  []models.RenderedEmail
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, email models.RenderedEmail) models.DispatchResult {
	f.calls++
	f.sent = append(f.sent, email)
	if f.panic {
		panic("provider sdk bug")
	}
	if f.err != nil {
		return models.DispatchResult{Provider: "fake", Err: &DispatchError{Provider: "fake", Err: f.err}}
	}
	return models.DispatchResult{Provider: "fake", MessageID: "msg-1"}
}

type fakeSMS struct {
	err   error
	panic bool
	calls int
}

func (f *fakeSMS) Notify(ctx context.Context, name string, agenda models.DailyAgenda) error {
	f.calls++
	if f.panic {
		panic("twilio client bug")
	}
	return f.err
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []models.NotificationRun
}

func (m *memoryRecorder) Record(ctx context.Context, run *models.NotificationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

type pipelineFixture struct {
	auth       *fakeAuth
	fetcher    *fakeFetcher
	renderer   *fakeRenderer
	dispatcher *fakeDispatcher
	recorder   *memoryRecorder
	logs       *observer.ObservedLogs
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &pipelineFixture{
		auth: &fakeAuth{token: "tok-1"},
		fetcher: &fakeFetcher{agenda: models.NewDailyAgenda("2024-05-10", []models.Appointment{
			{Procedure: "Lash Lift", Time: "10:00", Client: models.Client{Name: "Ana"}},
		}, nil)},
		renderer:   &fakeRenderer{},
		dispatcher: &fakeDispatcher{},
		recorder:   &memoryRecorder{},
		logs:       logs,
	}
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	f.pipeline = NewPipeline(PipelineDeps{
		Auth:       f.auth,
		Fetcher:    f.fetcher,
		Renderer:   f.renderer,
		Dispatcher: f.dispatcher,
		Recorder:   f.recorder,
	}, PipelineConfig{
		Credentials:    models.Credentials{Username: "u", Password: "p"},
		RecipientEmail: "livia@example.com",
		RecipientName:  "Livia",
		Location:       loc,
	}, zap.New(core))
	// 01:30 UTC is still the previous day in São Paulo.
	f.pipeline.now = func() time.Time { return time.Date(2024, 5, 11, 1, 30, 0, 0, time.UTC) }
	return f
}

func TestPipeline_HappyPath(t *testing.T) {
	f := newPipelineFixture(t)

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
	assert.NoError(t, report.Err())
	assert.Equal(t, "2024-05-10", report.Date)
	assert.Equal(t, "2024-05-10", f.fetcher.date)
	assert.Equal(t, models.AuthToken("tok-1"), f.fetcher.token)
	assert.Equal(t, 1, report.AppointmentCount)
	assert.Equal(t, 0, report.TaskCount)
	assert.Equal(t, "msg-1", report.MessageID)
	assert.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, "livia@example.com", f.dispatcher.sent[0].Recipient)
	assert.Equal(t, "Livia", f.dispatcher.sent[0].RecipientName)
	assert.Equal(t, 1, f.auth.logoutCalls)
	assert.Equal(t, models.AuthToken("tok-1"), f.auth.loggedOutTok)

	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, report.RunID, f.recorder.runs[0].ID.String())
	assert.Equal(t, models.RunOutcomeDelivered, f.recorder.runs[0].Outcome)
}

func TestPipeline_AuthenticationFailureStopsEverything(t *testing.T) {
	f := newPipelineFixture(t)
	f.auth.authErr = &AuthenticationError{Err: errors.New("401")}

	var report RunReport
	require.NotPanics(t, func() { report = f.pipeline.Run(context.Background(), TriggerSchedule) })

	assert.Equal(t, models.RunOutcomeAborted, report.Outcome)
	assert.Equal(t, StageAuthenticate, report.FailedStage)
	assert.Equal(t, 0, f.fetcher.calls)
	assert.Equal(t, 0, f.renderer.calls)
	assert.Equal(t, 0, f.dispatcher.calls)
	assert.Equal(t, 0, f.auth.logoutCalls)
	assert.Equal(t, 1, f.logs.FilterMessage("daily notification run aborted").Len())
}

func TestPipeline_FetchFailureSendsNothing(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.err = &FetchError{Resource: "appointments", Err: errors.New("500")}

	var report RunReport
	require.NotPanics(t, func() { report = f.pipeline.Run(context.Background(), TriggerSchedule) })

	assert.Equal(t, models.RunOutcomeAborted, report.Outcome)
	assert.Equal(t, StageFetch, report.FailedStage)
	assert.Contains(t, report.Error, "fetch appointments")
	assert.Equal(t, 0, f.renderer.calls)
	assert.Equal(t, 0, f.dispatcher.calls)
	// the token is left to expire
	assert.Equal(t, 0, f.auth.logoutCalls)
}

func TestPipeline_DispatchFailureStillLogsOut(t *testing.T) {
	f := newPipelineFixture(t)
	f.dispatcher.err = errors.New("provider down")

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, models.RunOutcomeDispatchFailed, report.Outcome)
	assert.Equal(t, StageDispatch, report.FailedStage)
	assert.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, 1, f.auth.logoutCalls)

	var dispatchErr *DispatchError
	assert.True(t, errors.As(report.Err(), &dispatchErr))
}

func TestPipeline_RenderFailureLogsOut(t *testing.T) {
	f := newPipelineFixture(t)
	f.renderer.err = &RenderError{Err: errors.New("bad template")}

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, models.RunOutcomeAborted, report.Outcome)
	assert.Equal(t, StageRender, report.FailedStage)
	assert.Equal(t, 0, f.dispatcher.calls)
	assert.Equal(t, 1, f.auth.logoutCalls)
}

func TestPipeline_LogoutFailureIsOnlyAWarning(t *testing.T) {
	f := newPipelineFixture(t)
	f.auth.logoutErr = &CleanupWarning{Err: errors.New("503")}

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
	assert.NoError(t, report.Err())
	assert.True(t, report.LogoutFailed)

	warnings := f.logs.FilterMessage("logout failed, token left to expire")
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, zapcore.WarnLevel, warnings.All()[0].Level)
}

func TestPipeline_SMSSummary(t *testing.T) {
	f := newPipelineFixture(t)
	sms := &fakeSMS{err: errors.New("twilio down")}
	f.pipeline.deps.SMS = sms

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
	assert.Equal(t, 1, f.auth.logoutCalls)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to send agenda summary").Len())
}

func TestPipeline_RenderPanicStillLogsOut(t *testing.T) {
	f := newPipelineFixture(t)
	f.renderer.panic = true

	var report RunReport
	require.NotPanics(t, func() { report = f.pipeline.Run(context.Background(), TriggerSchedule) })

	assert.Equal(t, models.RunOutcomeAborted, report.Outcome)
	assert.Equal(t, StageRender, report.FailedStage)
	assert.Equal(t, StageRender, StageOf(report.Err()))
	assert.Contains(t, report.Error, "template exploded")
	assert.Equal(t, 0, f.dispatcher.calls)
	assert.Equal(t, 1, f.auth.logoutCalls)
	require.Len(t, f.recorder.runs, 1)

	// the guard slot was released
	report = f.pipeline.Run(context.Background(), TriggerSchedule)
	assert.NotEqual(t, models.RunOutcomeSkipped, report.Outcome)
}

func TestPipeline_DispatchPanicIsDispatchFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.dispatcher.panic = true

	var report RunReport
	require.NotPanics(t, func() { report = f.pipeline.Run(context.Background(), TriggerSchedule) })

	assert.Equal(t, models.RunOutcomeDispatchFailed, report.Outcome)
	assert.Equal(t, StageDispatch, report.FailedStage)
	var dispatchErr *DispatchError
	assert.True(t, errors.As(report.Err(), &dispatchErr))
	assert.Equal(t, 1, f.auth.logoutCalls)
}

func TestPipeline_SMSPanicAfterDeliveryKeepsOutcome(t *testing.T) {
	f := newPipelineFixture(t)
	sms := &fakeSMS{panic: true}
	f.pipeline.deps.SMS = sms

	var report RunReport
	require.NotPanics(t, func() { report = f.pipeline.Run(context.Background(), TriggerSchedule) })

	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
	assert.Empty(t, report.FailedStage)
	assert.NoError(t, report.Err())
	assert.Equal(t, "msg-1", report.MessageID)
	assert.Equal(t, 1, f.auth.logoutCalls)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to send agenda summary").Len())
}

func TestPipeline_SkipsWhenRunInProgress(t *testing.T) {
	f := newPipelineFixture(t)
	guard := NewLocalRunGuard()
	f.pipeline.deps.Guard = guard

	release, ok, err := guard.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	report := f.pipeline.Run(context.Background(), TriggerManual)
	assert.Equal(t, models.RunOutcomeSkipped, report.Outcome)
	assert.Equal(t, 0, f.auth.authCalls)

	release()
	report = f.pipeline.Run(context.Background(), TriggerManual)
	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
}

type brokenGuard struct{}

func (brokenGuard) TryAcquire(context.Context) (func(), bool, error) {
	return nil, false, errors.New("redis unreachable")
}

func TestPipeline_RunsWhenGuardUnavailable(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.deps.Guard = brokenGuard{}

	report := f.pipeline.Run(context.Background(), TriggerSchedule)

	assert.Equal(t, models.RunOutcomeDelivered, report.Outcome)
	assert.Equal(t, 1, f.logs.FilterMessage("run guard unavailable, running unguarded").Len())
}
