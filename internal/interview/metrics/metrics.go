package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the interview Prometheus metrics. A nil *Metrics is valid
// and records nothing, which keeps tests free of registries.
type Metrics struct {
	InterviewsStarted  prometheus.Counter
	StepTransitions    *prometheus.CounterVec
	CoherenceOutcomes  *prometheus.CounterVec
	CoherenceScore     prometheus.Histogram
	ExtractionLatency  *prometheus.HistogramVec
	ExtractionFailures *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InterviewsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "visaflow_interviews_started_total",
			Help: "Interviews created, including imports",
		}),
		StepTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_step_transitions_total",
			Help: "Flow transitions by step and action",
		}, []string{"step", "action"}),
		CoherenceOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_coherence_results_total",
			Help: "Coherence check results by code and outcome",
		}, []string{"code", "outcome"}),
		CoherenceScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "visaflow_coherence_score",
			Help:    "Distribution of coherence report scores",
			Buckets: []float64{0.25, 0.5, 0.7, 0.8, 0.9, 0.95, 1},
		}),
		ExtractionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visaflow_extraction_duration_seconds",
			Help:    "Document extraction latency by category",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"category"}),
		ExtractionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visaflow_extraction_failures_total",
			Help: "Document extractions that failed, by category and error kind",
		}, []string{"category", "kind"}),
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visaflow_interview_operation_duration_seconds",
			Help:    "Interview service operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncInterviewsStarted() {
	if m == nil {
		return
	}
	m.InterviewsStarted.Inc()
}

func (m *Metrics) IncStepTransition(step, action string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(step, action).Inc()
}

func (m *Metrics) ObserveCoherenceResult(code, outcome string) {
	if m == nil {
		return
	}
	m.CoherenceOutcomes.WithLabelValues(code, outcome).Inc()
}

func (m *Metrics) ObserveCoherenceScore(score float64) {
	if m == nil {
		return
	}
	m.CoherenceScore.Observe(score)
}

func (m *Metrics) ObserveExtraction(category string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionLatency.WithLabelValues(category).Observe(d.Seconds())
}

func (m *Metrics) IncExtractionFailure(category, kind string) {
	if m == nil {
		return
	}
	m.ExtractionFailures.WithLabelValues(category, kind).Inc()
}

// ObserveOperation is meant to be deferred: defer m.ObserveOperation("name", time.Now()).
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
