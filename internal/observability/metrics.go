// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeNotFound   = "not_found"
	OutcomeNoMovement = "no_movement"
	OutcomeReceived   = "received"
	OutcomeSent       = "sent"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Lookup metrics
	LookupsTotal     *prometheus.CounterVec
	LastDelta        prometheus.Gauge
	WaitDuration     prometheus.Histogram
	LastLookupUnixTS prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on its own registry.
// A one-shot process has no scrape endpoint, so metrics are exported with WriteTextfile.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_delta"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "RPC call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "Total number of failed RPC calls",
		}, []string{"method"}),

		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "total",
			Help:      "Total number of lookups by outcome",
		}, []string{"outcome"}),
		LastDelta: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "last_delta",
			Help:      "Token delta of the last successful lookup in display units",
		}),
		WaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for the transaction to reach the commitment level",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		LastLookupUnixTS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "last_timestamp_seconds",
			Help:      "Unix timestamp of the last completed lookup",
		}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRPCCall records RPC call latency and failure.
func (m *Metrics) RecordRPCCall(method string, seconds float64, err error) {
	m.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordLookup records a completed lookup.
func (m *Metrics) RecordLookup(outcome string, unixSeconds float64) {
	m.LookupsTotal.WithLabelValues(outcome).Inc()
	m.LastLookupUnixTS.Set(unixSeconds)
}

// RecordDelta sets the last delta gauge.
func (m *Metrics) RecordDelta(delta float64) {
	m.LastDelta.Set(delta)
}

// RecordWait records the finality wait duration.
func (m *Metrics) RecordWait(seconds float64) {
	m.WaitDuration.Observe(seconds)
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for pickup by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
