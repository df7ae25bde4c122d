// Package metrics provides Prometheus metrics for the rendering engine.
// Every recording method is safe to call on a nil *Metrics, which disables collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all abedge metrics.
	MetricsNamespace = "abedge"

	// MetricsSubsystem is the subsystem for rendering metrics.
	MetricsSubsystem = "processor"
)

// Metrics holds all Prometheus metrics for the processor and its backends.
type Metrics struct {
	// Document metrics
	DocumentsProcessed prometheus.Counter
	ProcessDuration    prometheus.Histogram
	ExperimentFailures prometheus.Counter
	BackendFallbacks   prometheus.Counter

	// Change metrics
	ChangesApplied  *prometheus.CounterVec
	ChangeFailures  *prometheus.CounterVec
	SelectorMisses  *prometheus.CounterVec
	SanitizerBlocks *prometheus.CounterVec

	// Treatment tag metrics
	TreatmentTagsResolved *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on reg.
// A nil reg registers on the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initDocumentMetrics(factory)
	m.initChangeMetrics(factory)

	return m
}

// initDocumentMetrics initializes document-level metrics.
func (m *Metrics) initDocumentMetrics(factory promauto.Factory) {
	m.DocumentsProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "documents_processed_total",
		Help:      "Total number of HTML documents processed",
	})

	m.ProcessDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "process_duration_seconds",
		Help:      "Time spent processing one HTML document",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	m.ExperimentFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "experiment_failures_total",
		Help:      "Experiments whose change batch failed on every backend",
	})

	m.BackendFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "backend_fallbacks_total",
		Help:      "Change batches retried on the regex backend after the tree backend failed",
	})
}

// initChangeMetrics initializes per-change metrics.
func (m *Metrics) initChangeMetrics(factory promauto.Factory) {
	m.ChangesApplied = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "changes_applied_total",
			Help:      "Total number of DOM changes applied",
		},
		[]string{"backend", "type"},
	)

	m.ChangeFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "change_failures_total",
			Help:      "Total number of DOM changes skipped because they failed",
		},
		[]string{"backend", "type"},
	)

	m.SelectorMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "selector_misses_total",
			Help:      "Total number of DOM changes whose selector matched nothing",
		},
		[]string{"backend"},
	)

	m.SanitizerBlocks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "sanitizer_blocked_total",
			Help:      "Dangerous elements, attributes and URLs removed by the sanitizer",
		},
		[]string{"kind"},
	)

	m.TreatmentTagsResolved = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "treatment_tags_resolved_total",
			Help:      "Treatment tags resolved, by the selection step that decided the variant",
		},
		[]string{"step"},
	)
}

// DocumentProcessed records one processed document and its duration.
func (m *Metrics) DocumentProcessed(d time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.Inc()
	m.ProcessDuration.Observe(d.Seconds())
}

// ExperimentFailed records an experiment whose batch could not be applied.
func (m *Metrics) ExperimentFailed() {
	if m == nil {
		return
	}
	m.ExperimentFailures.Inc()
}

// BackendFallback records a fallback to the regex backend.
func (m *Metrics) BackendFallback() {
	if m == nil {
		return
	}
	m.BackendFallbacks.Inc()
}

// ChangeApplied records a change applied by backend.
func (m *Metrics) ChangeApplied(backend, changeType string) {
	if m == nil {
		return
	}
	m.ChangesApplied.WithLabelValues(backend, changeType).Inc()
}

// ChangeFailed records a change skipped after an error.
func (m *Metrics) ChangeFailed(backend, changeType string) {
	if m == nil {
		return
	}
	m.ChangeFailures.WithLabelValues(backend, changeType).Inc()
}

// SelectorMissed records a selector that matched no element.
func (m *Metrics) SelectorMissed(backend string) {
	if m == nil {
		return
	}
	m.SelectorMisses.WithLabelValues(backend).Inc()
}

// SanitizerBlocked records n removals of the given kind (element, attribute, url).
func (m *Metrics) SanitizerBlocked(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SanitizerBlocks.WithLabelValues(kind).Add(float64(n))
}

// TreatmentTagResolved records the selection step that resolved a treatment tag.
func (m *Metrics) TreatmentTagResolved(step string) {
	if m == nil {
		return
	}
	m.TreatmentTagsResolved.WithLabelValues(step).Inc()
}
