package chat

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Number of users with a live chat connection",
		},
	)

	MessagesPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total number of persisted chat messages by kind",
		},
		[]string{"kind"},
	)

	StoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_failures_total",
			Help: "Total number of failed message writes by kind",
		},
		[]string{"kind"},
	)

	Pushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_pushes_total",
			Help: "Total number of live push attempts by kind and result",
		},
		[]string{"kind", "result"},
	)

	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Total number of inbound chat events by event and result",
		},
		[]string{"event", "result"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(MessagesPersisted)
	prometheus.MustRegister(StoreFailures)
	prometheus.MustRegister(Pushes)
	prometheus.MustRegister(Events)
}

const (
	resultOK      = "ok"
	resultError   = "error"
	resultDropped = "dropped"
)
