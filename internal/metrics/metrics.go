package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes used as the "outcome" label.
const (
	OutcomeSuccess         = "success"
	OutcomeUpstream4xx     = "upstream_4xx"
	OutcomeUpstream5xx     = "upstream_5xx"
	OutcomePayloadTooLarge = "payload_too_large"
	OutcomeInvalidPayload  = "invalid_payload"
	OutcomeTransportError  = "transport_error"
	OutcomeRejected        = "rejected"
)

// Metrics owns a private registry so several instances can coexist in tests.
// All recording methods accept a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamAttempts    *prometheus.CounterVec
	UpstreamDuration    *prometheus.HistogramVec
	BreakerState        *prometheus.GaugeVec
	AggregationWarnings *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_upstream_attempts_total",
				Help: "Upstream HTTP attempts by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_upstream_attempt_duration_seconds",
				Help:    "Latency of upstream HTTP attempts",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_breaker_state",
				Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open)",
			},
			[]string{"service"},
		),
		AggregationWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_aggregation_warnings_total",
				Help: "Degraded sub-fetches in game details aggregation",
			},
			[]string{"service"},
		),
	}
}

func (m *Metrics) ObserveAttempt(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamAttempts.WithLabelValues(service, outcome).Inc()
	if outcome != OutcomeRejected {
		m.UpstreamDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SetBreakerState(service string, value float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(service).Set(value)
}

func (m *Metrics) IncWarning(service string) {
	if m == nil {
		return
	}
	m.AggregationWarnings.WithLabelValues(service).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
