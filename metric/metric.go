// Package metric provides the Prometheus registry and gateway metrics.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry owns the process-wide Prometheus registry, pre-populated with Go
// runtime and process collectors.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates the registry with runtime collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// GatewayMetrics tracks the gateway's request traffic and stream pressure.
type GatewayMetrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	BytesReceived     prometheus.Counter
	BytesSent         prometheus.Counter
	ActiveStreams     prometheus.Gauge
	StreamsRejected   prometheus.Counter
	SlowConsumerDrops prometheus.Counter
	BusReconnects     prometheus.Counter
}

// NewGatewayMetrics creates and registers the gateway metrics.
func NewGatewayMetrics(r *Registry) *GatewayMetrics {
	m := &GatewayMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "requests_total",
			Help:      "HTTP requests handled, by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "busbridge",
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "bytes_received_total",
			Help:      "Total request body bytes received.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "bytes_sent_total",
			Help:      "Total response body bytes sent.",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "busbridge",
			Name:      "active_streams",
			Help:      "Streaming requests currently in flight.",
		}),
		StreamsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "streams_rejected_total",
			Help:      "Streaming requests rejected at the concurrency cap.",
		}),
		SlowConsumerDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "slow_consumer_drops_total",
			Help:      "Streams terminated early because the consumer stalled.",
		}),
		BusReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busbridge",
			Name:      "bus_reconnects_total",
			Help:      "NATS connection re-establishments.",
		}),
	}

	r.reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.BytesReceived,
		m.BytesSent,
		m.ActiveStreams,
		m.StreamsRejected,
		m.SlowConsumerDrops,
		m.BusReconnects,
	)
	return m
}
