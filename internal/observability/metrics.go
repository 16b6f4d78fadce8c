package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ReactionToggles counts reaction toggles by kind and outcome.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_reaction_toggles_total",
		Help: "Total number of reaction toggles by kind and outcome",
	}, []string{"kind", "outcome"})

	// MessagesSent counts chat messages accepted by the messaging service.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commune_messages_sent_total",
		Help: "Total number of chat messages sent",
	})

	// ReportsSubmitted counts moderation reports by target kind.
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_reports_submitted_total",
		Help: "Total number of moderation reports by target kind",
	}, []string{"target_type"})

	// WebSocketConnectionsTotal is the gauge of active chat WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commune_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts outbound messages dropped because a
	// client's send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
