package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	statements *prometheus.CounterVec
}

// NewRegistry returns a registry holding the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlpp_requests_total",
				Help: "formatting requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlpp_request_duration_seconds",
				Help:    "time spent handling a formatting request",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"endpoint"},
		),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlpp_mapper_statements_total",
				Help: "mapper statements seen, by what happened to them",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requests, m.latency, m.statements)
	return m
}

func (m *metrics) observe(endpoint, outcome string, start time.Time) {
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
