package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records document pipeline activity: conversions, lifecycle
// transitions and signer notifications.
type PipelineMetrics struct {
	conversionDuration *prometheus.HistogramVec
	conversionFailure  *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	notifyFailure      *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	conversionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_conversion_duration_seconds",
		Help:    "Duration of DOCX to PDF conversions in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
	}, []string{"engine"})
	conversionFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_conversion_failures_total",
		Help: "Failed conversion or signature stamping attempts.",
	}, []string{"engine", "stage"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_transitions_total",
		Help: "Document lifecycle events applied.",
	}, []string{"event"})
	notifyFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_notification_failures_total",
		Help: "Signer notifications that could not be delivered.",
	}, []string{"channel"})
	reg.MustRegister(conversionDuration, conversionFailure, transitions, notifyFailure)
	return &PipelineMetrics{
		conversionDuration: conversionDuration,
		conversionFailure:  conversionFailure,
		transitions:        transitions,
		notifyFailure:      notifyFailure,
	}
}

// ObserveConversion records how long the named engine took.
func (m *PipelineMetrics) ObserveConversion(engine string, duration time.Duration) {
	if m == nil || m.conversionDuration == nil {
		return
	}
	m.conversionDuration.WithLabelValues(normalizeLabel(engine)).Observe(duration.Seconds())
}

// IncConversionFailure counts a failure at the given stage (convert, stamp).
func (m *PipelineMetrics) IncConversionFailure(engine, stage string) {
	if m == nil || m.conversionFailure == nil {
		return
	}
	m.conversionFailure.WithLabelValues(normalizeLabel(engine), normalizeLabel(stage)).Inc()
}

// IncTransition counts an applied lifecycle event.
func (m *PipelineMetrics) IncTransition(event string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncNotificationFailure counts a swallowed notification error.
func (m *PipelineMetrics) IncNotificationFailure(channel string) {
	if m == nil || m.notifyFailure == nil {
		return
	}
	m.notifyFailure.WithLabelValues(normalizeLabel(channel)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
