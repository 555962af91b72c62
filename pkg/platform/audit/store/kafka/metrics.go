package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit broker sink. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Published    prometheus.Counter
	Failures     prometheus.Counter
	Diverted     prometheus.Counter
	BreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "visaflow_audit_kafka_published_total",
			Help: "Audit events acknowledged by the broker",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "visaflow_audit_kafka_failures_total",
			Help: "Audit events the broker rejected or timed out on",
		}),
		Diverted: f.NewCounter(prometheus.CounterOpts{
			Name: "visaflow_audit_kafka_diverted_total",
			Help: "Audit events sent to the fallback store while the circuit was open",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "visaflow_audit_kafka_circuit_open",
			Help: "1 while the audit broker circuit is open",
		}),
	}
}

func (m *Metrics) incPublished() {
	if m != nil {
		m.Published.Inc()
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.Failures.Inc()
	}
}

func (m *Metrics) incDiverted() {
	if m != nil {
		m.Diverted.Inc()
	}
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}
