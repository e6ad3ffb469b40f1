package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipewright_build_info",
		Help: "Build information of the pipewright binary",
	},
		[]string{"version", "commit", "date"},
	)

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipewright_runs_total",
		Help: "Total number of pipeline runs by outcome",
	},
		[]string{"workflow", "result"},
	)

	RunFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipewright_run_failures_total",
		Help: "Total number of failed pipeline runs by stage and failure class",
	},
		[]string{"workflow", "stage", "failure"},
	)

	EventsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipewright_events_skipped_total",
		Help: "Total number of events skipped by the trigger filter",
	},
		[]string{"workflow"},
	)

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipewright_stage_duration_seconds",
		Help:    "Wall-clock duration of each pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	},
		[]string{"workflow", "stage"},
	)
)
