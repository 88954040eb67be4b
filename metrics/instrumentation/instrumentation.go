package instrumentation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StageLatency tracks latency for individual pipeline stages
	StageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maskgif_stage_duration_seconds",
			Help:    "A histogram of latencies for individual pipeline stages",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "status"},
	)

	// RunCounter tracks pipeline runs by outcome
	RunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maskgif_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// RunLatency tracks whole pipeline latency
	RunLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maskgif_run_duration_seconds",
			Help:    "A histogram of pipeline run latencies",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(StageLatency)
	prometheus.MustRegister(RunCounter)
	prometheus.MustRegister(RunLatency)
}

type kindErr interface {
	Kind() string
}

// StatusOf returns a metrics status label for err
func StatusOf(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var k kindErr
	if errors.As(err, &k) {
		return strings.ReplaceAll(k.Kind(), " ", "_")
	}
	return "error"
}

// StageTimer times a single pipeline stage
type StageTimer struct {
	stage string
	start time.Time
}

// NewStageTimer starts a stage timer
func NewStageTimer(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

// Elapsed duration since the timer started
func (t *StageTimer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the stage duration with the status derived from err
func (t *StageTimer) ObserveDuration(err error) {
	StageLatency.WithLabelValues(t.stage, StatusOf(err)).Observe(t.Elapsed().Seconds())
}

// ObserveRun records a finished pipeline run
func ObserveRun(status string, duration time.Duration) {
	RunCounter.WithLabelValues(status).Inc()
	RunLatency.WithLabelValues(status).Observe(duration.Seconds())
}
