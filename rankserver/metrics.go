package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricRankRequestsTotal        = "bidrank_rank_requests_total"
	MetricRankDuration             = "bidrank_rank_duration_seconds"
	MetricBidsPerRequest           = "bidrank_bids_per_request"
	MetricRejectedBidsTotal        = "bidrank_rejected_bids_total"
	MetricRejectedConnectionsTotal = "bidrank_rejected_connections_total"
)

// Request outcomes
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics contains the Prometheus collectors for the ranking server.
// All operations are safe for concurrent use.
type Metrics struct {
	requestsTotal       *prometheus.CounterVec
	rankDuration        *prometheus.HistogramVec
	bidsPerRequest      prometheus.Histogram
	rejectedBids        *prometheus.CounterVec
	rejectedConnections prometheus.Counter
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankRequestsTotal,
				Help: "Total number of rank requests by resolved strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		rankDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankDuration,
				Help:    "Time spent ranking and signing a request in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"strategy"},
		),
		bidsPerRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricBidsPerRequest,
				Help:    "Number of bids submitted per rank request",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		rejectedBids: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRejectedBidsTotal,
				Help: "Total number of bids that failed validation by field",
			},
			[]string{"field"},
		),
		rejectedConnections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRejectedConnectionsTotal,
				Help: "Connections closed because the worker pool was full",
			},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRequests counts a finished rank request.
func (m *Metrics) IncRequests(strategy, outcome string) {
	m.requestsTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveRankDuration records how long a ranking took.
func (m *Metrics) ObserveRankDuration(strategy string, seconds float64) {
	m.rankDuration.WithLabelValues(strategy).Observe(seconds)
}

// ObserveBids records the size of a request.
func (m *Metrics) ObserveBids(n int) {
	m.bidsPerRequest.Observe(float64(n))
}

// IncRejectedBid counts a bid rejected on field.
func (m *Metrics) IncRejectedBid(field string) {
	m.rejectedBids.WithLabelValues(field).Inc()
}

// IncRejectedConnections counts a connection turned away by the worker pool.
func (m *Metrics) IncRejectedConnections() {
	m.rejectedConnections.Inc()
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.rankDuration,
		m.bidsPerRequest,
		m.rejectedBids,
		m.rejectedConnections,
	}
}

// MetricsHandler serves the metrics gathered from reg.
func MetricsHandler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
