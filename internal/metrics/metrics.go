// Package metrics provides Prometheus instrumentation for the Amora
// messaging service. It exposes gauges for connection and presence counts,
// counters for message outcomes, and histograms for persist latency and
// fan-out width.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "amora_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// OnlineUsers tracks the number of users with at least one live channel.
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "amora_online_users",
		Help: "Current number of users with at least one live channel",
	})

	// MessagesTotal counts processed messages by outcome: "sent", "delivered",
	// "rejected", or "store_error".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amora_messages_total",
		Help: "Total number of messages processed",
	}, []string{"outcome"})

	// PersistLatency records the message store append latency in seconds.
	PersistLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amora_persist_latency_seconds",
		Help:    "Message store append latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// FanOutSize records how many distinct channels each send delivered to.
	FanOutSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amora_fanout_channels",
		Help:    "Distinct channels targeted per message send",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	// HistoryFetches counts conversation history reads by outcome:
	// "ok" or "unauthorized".
	HistoryFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amora_history_fetches_total",
		Help: "Total number of conversation history fetches",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		OnlineUsers,
		MessagesTotal,
		PersistLatency,
		FanOutSize,
		HistoryFetches,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
