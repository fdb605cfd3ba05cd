// Package metrics exposes Prometheus metrics for the decision service.
//
// Metrics (all under the "verdict" namespace):
//   - verdict_decisions_total: decisions by policy and outcome
//   - verdict_decision_duration_seconds: end-to-end decision latency
//   - verdict_violations_total: rule violations counted per policy
//   - verdict_risk_score: risk score distribution per policy
//   - verdict_policy_reloads_total: policy set reloads
//   - verdict_active_policies: policies in the active set
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verdict"

// Collector owns the Prometheus registry and every metric the service
// records.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	violationsTotal  *prometheus.CounterVec
	riskScore        *prometheus.HistogramVec
	reloadsTotal     prometheus.Counter
	activePolicies   prometheus.Gauge
}

// NewCollector creates a collector with its own registry. If registry
// is nil a fresh one is created, so tests never collide on metric
// registration.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of payment decisions by policy and outcome",
			},
			[]string{"policy", "outcome"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_duration_seconds",
				Help:      "End-to-end decision latency including ledger reads",
				// Decisions are ledger-read plus pure compute, so sub-millisecond
				// to low milliseconds.
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
			},
			[]string{"policy"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "violations_total",
				Help:      "Total rule violations counted across decisions",
			},
			[]string{"policy"},
		),

		riskScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "risk_score",
				Help:      "Risk score distribution per policy (0-100)",
				Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"policy"},
		),

		reloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_reloads_total",
				Help:      "Total number of policy set reloads",
			},
		),

		activePolicies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_policies",
				Help:      "Number of policies in the active set",
			},
		),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.decisionDuration,
		c.violationsTotal,
		c.riskScore,
		c.reloadsTotal,
		c.activePolicies,
	)

	return c
}

// RecordDecision records one completed decision.
func (c *Collector) RecordDecision(policy string, approved bool, riskScore uint8, violations int, duration time.Duration) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	c.decisionsTotal.WithLabelValues(policy, outcome).Inc()
	c.decisionDuration.WithLabelValues(policy).Observe(duration.Seconds())
	c.violationsTotal.WithLabelValues(policy).Add(float64(violations))
	c.riskScore.WithLabelValues(policy).Observe(float64(riskScore))
}

// RecordReload records a policy set reload and the resulting set size.
func (c *Collector) RecordReload(activePolicies int) {
	c.reloadsTotal.Inc()
	c.activePolicies.Set(float64(activePolicies))
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
