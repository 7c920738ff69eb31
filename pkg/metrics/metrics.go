// Package metrics exposes engine instrumentation as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"interviewd/pkg/approval"
	"interviewd/pkg/interview"
)

//nolint:gochecknoglobals // Prometheus collectors are process-wide
var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interviewd_sessions_created_total",
		Help: "Number of interview sessions created.",
	})

	answersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interviewd_answers_submitted_total",
		Help: "Number of answers recorded, by step.",
	}, []string{"step"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interviewd_generation_duration_seconds",
		Help:    "LLM generation latency, by kind (question, evaluation).",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"kind", "status"})

	approvalOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interviewd_approval_outcomes_total",
		Help: "Human approval gate outcomes.",
	}, []string{"outcome"})

	approvalWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interviewd_approval_wait_seconds",
		Help:    "Time spent waiting on the human approval gate.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Recorder implements the engine's Recorder interface on the Prometheus
// collectors above.
type Recorder struct{}

// NewRecorder returns the Prometheus-backed recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (*Recorder) RecordSessionCreated() {
	sessionsCreated.Inc()
}

func (*Recorder) RecordAnswer(step interview.State) {
	answersSubmitted.WithLabelValues(string(step)).Inc()
}

func (*Recorder) RecordGeneration(kind string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	generationDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

func (*Recorder) RecordApproval(outcome approval.OutcomeKind, wait time.Duration) {
	approvalOutcomes.WithLabelValues(string(outcome)).Inc()
	approvalWait.Observe(wait.Seconds())
}
