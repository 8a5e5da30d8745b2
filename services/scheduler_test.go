package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lashapp-notifier/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct{ calls atomic.Int32 }

func (r *countingRunner) Run(ctx context.Context, trigger string) RunReport {
	r.calls.Add(1)
	return RunReport{Trigger: trigger}
}

type countingPinger struct{ calls atomic.Int32 }

func (p *countingPinger) Ping(context.Context) error {
	p.calls.Add(1)
	return nil
}

func TestScheduler_NextRunInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	s := NewScheduler(&countingRunner{}, nil, config.ScheduleConfig{
		Cron:         "0 5 * * *",
		TimezoneName: "America/Sao_Paulo",
		Location:     loc,
	}, zap.NewNop())
	assert.True(t, s.NextRun().IsZero())

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	next := s.NextRun().In(loc)
	require.False(t, next.IsZero())
	assert.Equal(t, 5, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.LessOrEqual(t, time.Until(next), 24*time.Hour)
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, config.ScheduleConfig{Cron: "every day"}, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestScheduler_KeepAlive(t *testing.T) {
	pinger := &countingPinger{}
	runner := &countingRunner{}
	s := NewScheduler(runner, NewKeepAlive(pinger, zap.NewNop()), config.ScheduleConfig{
		Cron:              "0 5 1 1 *",
		KeepAliveInterval: time.Second,
	}, zap.NewNop())
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return pinger.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.Equal(t, int32(0), runner.calls.Load())
}
