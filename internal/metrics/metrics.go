package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry and the collectors for the app.
// Instances are passed around explicitly; there is no global registry use.
type Metrics struct {
	registry *prometheus.Registry

	intentsTotal   *prometheus.CounterVec
	apiErrorsTotal *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slack_intents_total",
			Help: "Number of Slack intents handled, by intent name.",
		}, []string{"intent"}),
		apiErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newrelic_api_errors_total",
			Help: "Number of failed New Relic API calls, by endpoint.",
		}, []string{"api"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newrelic_api_duration_seconds",
			Help:    "Duration of New Relic API calls, by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"api"}),
	}

	m.registry.MustRegister(m.intentsTotal, m.apiErrorsTotal, m.apiDuration)
	return m
}

// RecordIntent counts one handled Slack intent.
func (m *Metrics) RecordIntent(intent string) {
	m.intentsTotal.WithLabelValues(intent).Inc()
}

// ObserveAPICall records the duration of a New Relic API call and counts
// the error if it failed.
func (m *Metrics) ObserveAPICall(api string, seconds float64, ok bool) {
	m.apiDuration.WithLabelValues(api).Observe(seconds)
	if !ok {
		m.apiErrorsTotal.WithLabelValues(api).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
