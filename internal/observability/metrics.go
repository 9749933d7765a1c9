package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitness_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of open websocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fitness_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// RoomRegistrations is the gauge of (user, channel) associations in the room registry.
	RoomRegistrations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fitness_room_registrations",
		Help: "Number of channel registrations across all user rooms",
	})

	// WebSocketEventsTotal counts inbound WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// BroadcastDeliveries counts room broadcasts by event and outcome.
	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_broadcast_deliveries_total",
		Help: "Room broadcast sends by event and outcome (delivered, failed, empty)",
	}, []string{"event", "outcome"})

	// NotificationsCreated counts persisted notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_notifications_created_total",
		Help: "Total number of notifications persisted by kind",
	}, []string{"kind"})

	// ForumToggles counts like/follow toggles by relation and resulting state.
	ForumToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_forum_toggles_total",
		Help: "Forum toggle operations by relation and resulting state",
	}, []string{"relation", "state"})

	// RateLimitDecisions counts rate limit checks by resource and outcome.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_rate_limit_decisions_total",
		Help: "Rate limit checks by resource and outcome (allowed, rejected, error)",
	}, []string{"resource", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ToggleState renders a toggle outcome as a metric label.
func ToggleState(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
