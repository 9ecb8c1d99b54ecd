// Package metrics counts what a scan run did and writes the counts in the
// Prometheus text format, for pickup by the node exporter textfile
// collector or for comparing runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/leakscan/internal/fetch"
	"github.com/nao1215/leakscan/internal/model"
)

// Task status labels.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Recorder holds the run's metrics on a private registry.
// A nil *Recorder ignores every call.
type Recorder struct {
	registry      *prometheus.Registry
	tasksTotal    *prometheus.CounterVec
	matchesTotal  *prometheus.CounterVec
	attemptsTotal *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakscan_tasks_total", Help: "Locations processed, by status"},
			[]string{"status"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakscan_matches_total", Help: "Matches emitted, by severity"},
			[]string{"severity"},
		),
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakscan_fetch_attempts_total", Help: "Fetch attempts, by location kind and outcome"},
			[]string{"kind", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leakscan_fetch_duration_seconds",
				Help:    "Duration of fetch attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	r.registry.MustRegister(r.tasksTotal, r.matchesTotal, r.attemptsTotal, r.fetchDuration)
	return r
}

// TaskDone counts a finished task.
func (r *Recorder) TaskDone(err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	r.tasksTotal.WithLabelValues(status).Inc()
}

// Match counts an emitted match by its normalised severity.
func (r *Recorder) Match(severity string) {
	if r == nil {
		return
	}
	r.matchesTotal.WithLabelValues(model.ParseSeverity(severity).String()).Inc()
}

// FetchAttempt counts one fetch attempt and records its duration.
func (r *Recorder) FetchAttempt(kind model.LocationKind, outcome fetch.Outcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.attemptsTotal.WithLabelValues(kind.String(), string(outcome)).Inc()
	r.fetchDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// FetchObserver adapts the recorder to the fetchers' attempt hook.
func (r *Recorder) FetchObserver() fetch.AttemptObserver {
	if r == nil {
		return nil
	}
	return r.FetchAttempt
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
