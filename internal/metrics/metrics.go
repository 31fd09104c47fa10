// Package metrics records run statistics as prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "behaverun"

// Recorder holds the metrics of one process. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	unitsTotal      *prometheus.CounterVec
	launchErrors    *prometheus.CounterVec
	scenariosTotal  *prometheus.CounterVec
	unitDuration    *prometheus.HistogramVec
	consistencyErrs *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		unitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "units_total",
			Help:      "Count of dispatched execution units",
		}, []string{"project", "kind"}),
		launchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "launch_errors_total",
			Help:      "Count of execution units that failed to launch or produce results",
		}, []string{"project"}),
		scenariosTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scenarios_total",
			Help:      "Count of reconciled scenario results",
		}, []string{"project", "outcome"}),
		unitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "unit_duration_seconds",
			Help:      "Wall time of execution units",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"project"}),
		consistencyErrs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "consistency_errors_total",
			Help:      "Count of runs whose reconciled results did not match the expected count",
		}, []string{"project"}),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordUnit records a finished execution unit.
func (r *Recorder) RecordUnit(project, kind string, duration time.Duration, launchFailed bool) {
	if r == nil {
		return
	}
	r.unitsTotal.WithLabelValues(project, kind).Inc()
	r.unitDuration.WithLabelValues(project).Observe(duration.Seconds())
	if launchFailed {
		r.launchErrors.WithLabelValues(project).Inc()
	}
}

// RecordResults records reconciled scenario results.
func (r *Recorder) RecordResults(project string, results []model.ScenarioResult, consistent bool) {
	if r == nil {
		return
	}
	for _, res := range results {
		r.scenariosTotal.WithLabelValues(project, string(res.Outcome)).Inc()
	}
	if !consistent {
		r.consistencyErrs.WithLabelValues(project).Inc()
	}
}

// WriteFile writes the metrics in the prometheus text format, e.g. for a
// node exporter textfile collector.
func (r *Recorder) WriteFile(filename string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(filename, r.registry)
}
