package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Notification job metrics.

var (
	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_pipeline_runs_total",
		Help: "Pipeline runs by outcome (delivered, dispatch_failed, aborted, skipped)",
	}, []string{"outcome"})

	StageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_stage_failures_total",
		Help: "Failures per pipeline stage, including non-fatal logout failures",
	}, []string{"stage"})

	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_stage_duration_ms",
		Help:    "Duration of each pipeline stage in milliseconds",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12),
	}, []string{"stage"})

	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_emails_total",
		Help: "Emails handed to the provider by result",
	}, []string{"provider", "result"})

	SMSSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_sms_total",
		Help: "SMS/WhatsApp summaries by channel and result",
	}, []string{"channel", "result"})

	KeepAlivePings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_keepalive_pings_total",
		Help: "Backend keep-alive pings by result",
	}, []string{"result"})

	LastSuccessfulRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_last_delivered_run_timestamp_seconds",
		Help: "Unix time of the last run whose email was accepted by the provider",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PipelineRuns, StageFailures, StageDuration, EmailsSent, SMSSent, KeepAlivePings, LastSuccessfulRun,
	}
}

// Register registers the job metrics on reg (or the default registerer if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
