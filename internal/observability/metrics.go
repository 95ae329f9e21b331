package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus instruments. Register once at
// startup; tests use NewMetricsWith and a private registry.
type Metrics struct {
	// ActiveConnections tracks live realtime connections by declared role.
	ActiveConnections *prometheus.GaugeVec

	// FramesReceived counts inbound realtime frames by message type.
	FramesReceived *prometheus.CounterVec

	// FramesDropped counts frames discarded as malformed or invalid.
	FramesDropped prometheus.Counter

	// BroadcastDeliveries counts individual frame deliveries during fan-out.
	BroadcastDeliveries prometheus.Counter

	// StreamRequests counts media streaming responses by status code.
	StreamRequests *prometheus.CounterVec
}

// NewMetrics registers the instruments with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vjdeck_active_connections",
				Help: "Live realtime connections by declared role.",
			},
			[]string{"role"},
		),
		FramesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vjdeck_frames_received_total",
				Help: "Inbound realtime frames by message type.",
			},
			[]string{"type"},
		),
		FramesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vjdeck_frames_dropped_total",
				Help: "Inbound frames dropped as malformed or invalid.",
			},
		),
		BroadcastDeliveries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vjdeck_broadcast_deliveries_total",
				Help: "Individual frame deliveries performed during broadcast fan-out.",
			},
		),
		StreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vjdeck_stream_requests_total",
				Help: "Media streaming responses by HTTP status code.",
			},
			[]string{"status"},
		),
	}
}
