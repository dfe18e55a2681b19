// Package metrics provides Prometheus metrics for a processing session,
// exported as a node_exporter textfile when the session ends.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/fmrimap/internal/materialize"
	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

const namespace = "fmrimap"

// Metrics holds the session's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// DatasetsScanned is the dataset count of the latest scan.
	DatasetsScanned prometheus.Gauge

	// ScanDuration tracks how long scans take.
	ScanDuration prometheus.Histogram

	// Assignments counts resolved assignments.
	// Labels: source (stored, new)
	Assignments *prometheus.CounterVec

	// Directories counts materialized directories.
	// Labels: status (created, existing)
	Directories *prometheus.CounterVec

	// Conversions counts conversion decisions.
	// Labels: result (run, skipped)
	Conversions *prometheus.CounterVec

	// RunsSkipped counts runs that produced no directories.
	RunsSkipped prometheus.Counter

	// Warnings counts materialization warnings.
	// Labels: kind (missing_run, conversion, structural_copy, unsafe_name, other)
	Warnings *prometheus.CounterVec

	// Steps counts executed plan steps.
	// Labels: status (completed, skipped, incomplete, failed)
	Steps *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DatasetsScanned: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "datasets",
				Help:      "Number of datasets found by the latest scan",
			},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "duration_seconds",
				Help:      "Duration of dataset scans in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Assignments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assignments_total",
				Help:      "Total number of resolved dataset assignments",
			},
			[]string{"source"},
		),
		Directories: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "materialize",
				Name:      "directories_total",
				Help:      "Total number of materialized directories by status",
			},
			[]string{"status"},
		),
		Conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "materialize",
				Name:      "conversions_total",
				Help:      "Total number of conversion decisions by result",
			},
			[]string{"result"},
		),
		RunsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "materialize",
				Name:      "runs_skipped_total",
				Help:      "Total number of runs skipped during materialization",
			},
		),
		Warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "materialize",
				Name:      "warnings_total",
				Help:      "Total number of materialization warnings by kind",
			},
			[]string{"kind"},
		),
		Steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "steps",
				Name:      "executions_total",
				Help:      "Total number of executed processing steps by status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScan records a completed scan.
func (m *Metrics) ObserveScan(datasets int, took time.Duration) {
	m.DatasetsScanned.Set(float64(datasets))
	m.ScanDuration.Observe(took.Seconds())
}

// RecordAssignment counts a resolved assignment.
func (m *Metrics) RecordAssignment(existing bool) {
	source := "new"
	if existing {
		source = "stored"
	}
	m.Assignments.WithLabelValues(source).Inc()
}

// RecordReport folds a materialization report into the counters.
func (m *Metrics) RecordReport(r *materialize.Report) {
	if r == nil {
		return
	}
	m.Directories.WithLabelValues("created").Add(float64(len(r.Created)))
	m.Directories.WithLabelValues("existing").Add(float64(len(r.Existing)))
	m.Conversions.WithLabelValues("run").Add(float64(r.ConversionsRun))
	m.Conversions.WithLabelValues("skipped").Add(float64(r.ConversionsSkipped))
	m.RunsSkipped.Add(float64(len(r.Skipped)))
	for _, w := range r.Warnings {
		m.Warnings.WithLabelValues(warningKind(w)).Inc()
	}
}

func warningKind(err error) string {
	switch {
	case errors.Is(err, materialize.ErrMissingRunDirectory):
		return "missing_run"
	case errors.Is(err, materialize.ErrArtifactConversion):
		return "conversion"
	case errors.Is(err, materialize.ErrStructuralCopy):
		return "structural_copy"
	case errors.Is(err, materialize.ErrUnsafeComponent):
		return "unsafe_name"
	default:
		return "other"
	}
}

// RecordSteps counts executed steps by status.
func (m *Metrics) RecordSteps(results []steps.Result) {
	for _, r := range results {
		m.Steps.WithLabelValues(string(r.Status)).Inc()
	}
}

// WriteTextfile writes all metrics in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
