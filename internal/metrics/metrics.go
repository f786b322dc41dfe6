// Package metrics defines Prometheus metrics for monitoring the commentary
// engine: feed ingestion, event detection, commentary generation, and the
// spectator broadcast path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed Metrics

var (
	// FeedConnectsTotal tracks match feed connection attempts by result
	FeedConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_connects_total",
			Help: "Total number of match feed connection attempts",
		},
		[]string{"result"}, // success, error
	)

	// FeedReconnectsTotal tracks reconnection attempts after a dropped feed
	FeedReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total number of match feed reconnection attempts",
		},
	)

	// FeedSnapshotDecodeFailures tracks snapshots that could not be decoded
	FeedSnapshotDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_snapshot_decode_failures_total",
			Help: "Total number of feed messages dropped due to decode errors",
		},
	)
)

// Detection Metrics

var (
	// SnapshotsProcessedTotal tracks snapshots run through the detector
	SnapshotsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshots_processed_total",
			Help: "Total number of match snapshots processed",
		},
	)

	// DetectedEventsTotal tracks game events emitted by the detector
	DetectedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detected_events_total",
			Help: "Total number of game events detected",
		},
		[]string{"type"}, // first_blood, ace, nexus_low, ...
	)

	// DetectionDuration tracks how long one snapshot takes to process
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_duration_seconds",
			Help:    "Duration of event detection per snapshot",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

// Commentary Metrics

var (
	// CommentaryRenderedTotal tracks commentary lines by generation path
	CommentaryRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentary_rendered_total",
			Help: "Total number of commentary lines produced",
		},
		[]string{"kind"}, // template, enhanced
	)

	// EnhancementRequestsTotal tracks LLM enhancement calls by result
	EnhancementRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enhancement_requests_total",
			Help: "Total number of commentary enhancement requests",
		},
		[]string{"result"}, // success, error, rejected
	)

	// EnhancementDuration tracks round-trip latency of enhancement calls
	EnhancementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enhancement_duration_seconds",
			Help:    "Duration of commentary enhancement requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// NarrationsDroppedTotal tracks narrations discarded because the queue was full
	NarrationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "narrations_dropped_total",
			Help: "Total number of narrations dropped due to a full queue",
		},
	)

	// NarrationFailuresTotal tracks narration commands that exited with an error
	NarrationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "narration_failures_total",
			Help: "Total number of failed narration commands",
		},
	)
)

// Circuit Breaker Metrics

var (
	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"component", "state"},
	)
)

// Broadcaster Metrics

var (
	// BroadcasterConnectedSpectators tracks currently registered spectators
	BroadcasterConnectedSpectators = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_spectators",
			Help: "Number of currently connected spectator clients",
		},
	)

	// BroadcasterMessagesTotal tracks commentary messages fanned out to spectators
	BroadcasterMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_messages_total",
			Help: "Total number of commentary messages broadcast",
		},
	)

	// BroadcasterBroadcastDuration tracks time to fan a message out to all spectators
	BroadcasterBroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcaster_broadcast_duration_seconds",
			Help:    "Duration of broadcasting one message to all spectators",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// BroadcasterSlowClientsEvicted tracks clients evicted for full send buffers
	BroadcasterSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_slow_clients_evicted_total",
			Help: "Total number of slow spectator clients evicted",
		},
	)

	// BroadcasterPanicsTotal tracks recovered panics in the broadcaster loop
	BroadcasterPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_panics_recovered_total",
			Help: "Total number of panics recovered in the broadcaster",
		},
	)

	// BroadcasterCommandTimeouts tracks commands that timed out waiting for the loop
	BroadcasterCommandTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_command_timeouts_total",
			Help: "Total number of broadcaster commands that timed out",
		},
	)

	// BroadcasterCommandChannelDepth tracks queued commands awaiting the actor loop
	BroadcasterCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_command_channel_depth",
			Help: "Current depth of the broadcaster command channel",
		},
	)
)

// WebSocket Metrics

var (
	// WebSocketConnectionsTotal tracks spectator connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total number of spectator WebSocket connection attempts",
		},
		[]string{"result"}, // success, error
	)

	// WebSocketConnectionsRejected tracks rejected spectator connections by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total number of rejected spectator WebSocket connections",
		},
		[]string{"reason"}, // global_limit, rate_limit
	)

	// WebSocketConnectionDuration tracks how long spectators stay connected
	WebSocketConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_connection_duration_seconds",
			Help:    "Duration of spectator WebSocket connections",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings to spectators
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total number of failed WebSocket ping attempts",
		},
	)

	// WebSocketMessageSendDuration tracks time to write one message to one spectator
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "Duration of individual WebSocket message sends",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

// Build Information

var (
	// BuildInfo exposes build metadata as labels with a constant value of 1
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTP Request Metrics
//
// Note: http_errors_total{type} is provided by the internal/errors package
// middleware, and the /metrics endpoint itself is served by promhttp.
