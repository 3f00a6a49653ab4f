// Package metrics provides custom Prometheus metrics for the components of pitchtrack.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PitchMetrics contains Prometheus metrics for the analysis pipeline and event sinks.
// All methods are safe to call on a nil receiver, which records nothing.
type PitchMetrics struct {
	WindowsAnalyzed  *prometheus.CounterVec
	WindowDuration   prometheus.Histogram
	LastFrequency    prometheus.Gauge
	LastClarity      prometheus.Gauge
	EventsDropped    *prometheus.CounterVec
	EventsDelivered  *prometheus.CounterVec
	StreamErrors     prometheus.Counter
	ErrorsByCategory *prometheus.CounterVec

	// curried per-verdict counters so the hot path does no label hashing
	verdictCounters map[string]prometheus.Counter

	collectors []prometheus.Collector
}

// NewPitchMetrics creates and registers pitch metrics with registry.
func NewPitchMetrics(registry prometheus.Registerer) (*PitchMetrics, error) {
	m := &PitchMetrics{}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pitch metrics: %w", err)
	}
	return m, nil
}

func (m *PitchMetrics) initMetrics() {
	m.WindowsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "windows_analyzed_total",
			Help:      "Total number of analysis windows by estimator verdict",
		},
		[]string{LabelVerdict},
	)

	m.WindowDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "window_processing_duration_seconds",
		Help:      "Time spent estimating and mapping one window",
		Buckets:   prometheus.ExponentialBuckets(WindowDurationBucketStart, WindowDurationBucketFactor, WindowDurationBucketCount),
	})

	m.LastFrequency = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_frequency_hz",
		Help:      "Frequency of the most recent accepted estimate",
	})

	m.LastClarity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_clarity",
		Help:      "Clarity of the most recent accepted estimate",
	})

	m.EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_dropped_total",
			Help:      "Note events dropped because a sink queue was full",
		},
		[]string{LabelSink},
	)

	m.EventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_delivered_total",
			Help:      "Note events written by a sink",
		},
		[]string{LabelSink},
	)

	m.StreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "stream_errors_total",
		Help:      "Asynchronous errors reported by the audio source",
	})

	m.ErrorsByCategory = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Errors built by the application, by component and category",
		},
		[]string{LabelComponent, LabelCategory},
	)

	m.verdictCounters = make(map[string]prometheus.Counter, len(Verdicts))
	for _, v := range Verdicts {
		m.verdictCounters[v] = m.WindowsAnalyzed.WithLabelValues(v)
	}

	m.collectors = []prometheus.Collector{
		m.WindowsAnalyzed,
		m.WindowDuration,
		m.LastFrequency,
		m.LastClarity,
		m.EventsDropped,
		m.EventsDelivered,
		m.StreamErrors,
		m.ErrorsByCategory,
	}
}

// RecordWindow counts an analysed window and its processing time.
func (m *PitchMetrics) RecordWindow(verdict string, durationSeconds float64) {
	if m == nil {
		return
	}
	if c, ok := m.verdictCounters[verdict]; ok {
		c.Inc()
	} else {
		m.WindowsAnalyzed.WithLabelValues(verdict).Inc()
	}
	m.WindowDuration.Observe(durationSeconds)
}

// RecordEstimate stores the latest accepted estimate.
func (m *PitchMetrics) RecordEstimate(frequencyHz, clarity float64) {
	if m == nil {
		return
	}
	m.LastFrequency.Set(frequencyHz)
	m.LastClarity.Set(clarity)
}

// RecordDropped counts an event dropped by sink.
func (m *PitchMetrics) RecordDropped(sink string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(sink).Inc()
}

// RecordDelivered counts an event written by sink.
func (m *PitchMetrics) RecordDelivered(sink string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(sink).Inc()
}

// RecordStreamError counts an asynchronous audio source error.
func (m *PitchMetrics) RecordStreamError() {
	if m == nil {
		return
	}
	m.StreamErrors.Inc()
}

// RecordError counts an application error by component and category.
func (m *PitchMetrics) RecordError(component, category string) {
	if m == nil {
		return
	}
	m.ErrorsByCategory.WithLabelValues(component, category).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *PitchMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *PitchMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}
