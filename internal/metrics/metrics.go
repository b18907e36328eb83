// Package metrics defines the networking core's Prometheus instruments:
// session counts, per-command message counts, byte totals, handshake
// failures, and idle disconnects. The hub, sessions, and cmd/p2pnoded do
// not construct or update these collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every metric this package defines.
type Collectors struct {
	SessionsActive     prometheus.Gauge
	SessionsTotal       *prometheus.CounterVec // labeled by direction
	MessagesReceived    *prometheus.CounterVec // labeled by command
	MessagesSent        *prometheus.CounterVec // labeled by command
	BytesReceived       prometheus.Counter
	BytesSent           prometheus.Counter
	HandshakeFailures   prometheus.Counter
	IdleDisconnects     *prometheus.CounterVec // labeled by reason
}

// NewCollectors constructs and registers every metric against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "p2pcore", Name: "sessions_active", Help: "Currently connected peer sessions.",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "sessions_total", Help: "Sessions established, by direction.",
		}, []string{"direction"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "messages_received_total", Help: "Messages received, by command.",
		}, []string{"command"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "messages_sent_total", Help: "Messages sent, by command.",
		}, []string{"command"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "bytes_received_total", Help: "Raw bytes read from peer sockets.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "bytes_sent_total", Help: "Raw bytes written to peer sockets.",
		}),
		HandshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "handshake_failures_total", Help: "Sessions dropped before completing the protocol handshake.",
		}),
		IdleDisconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "p2pcore", Name: "idle_disconnects_total", Help: "Sessions reaped by the service timer, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.SessionsActive, c.SessionsTotal, c.MessagesReceived, c.MessagesSent,
		c.BytesReceived, c.BytesSent, c.HandshakeFailures, c.IdleDisconnects,
	)
	return c
}
