package devserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the devserver's Prometheus collectors. Each Server owns its
// own registry.
type Metrics struct {
	registry *prometheus.Registry

	chatsStarted  prometheus.Counter
	chatsEnded    prometheus.Counter
	messages      *prometheus.CounterVec
	activeSockets prometheus.Gauge
	joinFailures  prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccai_devserver",
			Name:      "chats_started_total",
			Help:      "Chats created by end users.",
		}),
		chatsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccai_devserver",
			Name:      "chats_ended_total",
			Help:      "Chats moved to a terminal status.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccai_devserver",
			Name:      "messages_total",
			Help:      "Messages stored, by author role and message type.",
		}, []string{"role", "type"}),
		activeSockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccai_devserver",
			Name:      "active_sockets",
			Help:      "Authenticated chat stream connections.",
		}),
		joinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccai_devserver",
			Name:      "join_failures_total",
			Help:      "Rejected chat-join requests.",
		}),
	}
	m.registry.MustRegister(m.chatsStarted, m.chatsEnded, m.messages, m.activeSockets, m.joinFailures)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) messageStored(role, typ string) {
	m.messages.WithLabelValues(role, typ).Inc()
}
