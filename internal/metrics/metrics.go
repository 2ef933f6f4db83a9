package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_connections",
			Help: "Active websocket connections",
		},
	)

	WSFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_ws_frames_dropped_total",
			Help: "Fan-out frames dropped because a client send buffer was full",
		},
	)

	// Ledger
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Messages appended to room ledgers",
		},
		[]string{"type"}, // text | image | appointment
	)

	// View counters
	ViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_content_views_total",
			Help: "Content view attempts by outcome",
		},
		[]string{"kind", "outcome"}, // kind: listing|community_post, outcome: counted|deduplicated
	)
)
