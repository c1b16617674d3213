package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics exposes counters/histograms for the inbound lead pipeline.
type PipelineMetrics struct {
	inboundTotal  *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	draftsTotal   *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "pipeline",
			Name:      "inbound_processed_total",
			Help:      "Inbound messages processed to a tagged lead",
		}, []string{"source", "intent", "urgency"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "pipeline",
			Name:      "classifier_fallbacks_total",
			Help:      "Classifier calls that fell back to default scores",
		}, []string{"stage"}),
		draftsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "pipeline",
			Name:      "drafts_total",
			Help:      "Reply draft attempts by outcome",
		}, []string{"outcome"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of pipeline stages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.fallbackTotal, m.draftsTotal, m.stageLatency)
	return m
}

func (m *PipelineMetrics) ObserveInbound(source, intent, urgency string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(source, intent, urgency).Inc()
}

// ObserveFallback counts a classifier that degraded to its default.
func (m *PipelineMetrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) ObserveDraft(outcome string) {
	if m == nil {
		return
	}
	m.draftsTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}
