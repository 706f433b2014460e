package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the capture pipeline.
type Metrics struct {
	// Capture outcomes
	CapturesAccepted *prometheus.CounterVec
	CapturesRejected *prometheus.CounterVec

	// Normalization cost per accepted capture
	NormalizeDuration prometheus.Histogram

	// Real-time fan-out
	Subscribers       prometheus.Gauge
	BroadcastsSent    prometheus.Counter
	BroadcastsDropped prometheus.Counter
}

// New creates a Metrics instance registered against reg. Production wiring
// passes prometheus.DefaultRegisterer; tests pass a private registry so
// collectors never collide across instances.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CapturesAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_listener_captures_accepted_total",
				Help: "Total number of capture requests durably recorded",
			},
			[]string{"namespace"},
		),

		CapturesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_listener_captures_rejected_total",
				Help: "Total number of capture requests rejected before recording",
			},
			[]string{"reason"},
		),

		NormalizeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "webhook_listener_normalize_duration_seconds",
				Help:    "Time spent normalizing and decoding one capture request",
				Buckets: prometheus.DefBuckets,
			},
		),

		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webhook_listener_subscribers",
				Help: "Current number of connected WebSocket subscribers",
			},
		),

		BroadcastsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webhook_listener_broadcasts_sent_total",
				Help: "Total number of messages queued to subscribers",
			},
		),

		BroadcastsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webhook_listener_broadcasts_dropped_total",
				Help: "Total number of subscribers dropped for falling behind",
			},
		),
	}
}
