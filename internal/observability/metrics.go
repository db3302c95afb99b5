package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteCallLatency records platform API latency by service and operation.
	RemoteCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapgram_remote_call_latency_seconds",
		Help:    "Latency of calls to the backend platform in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "operation"})

	// RemoteCallErrors counts failed platform calls.
	RemoteCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_remote_call_errors_total",
		Help: "Total number of failed calls to the backend platform",
	}, []string{"service", "operation"})

	// CompensatingDeletes counts cleanup deletes of orphaned uploads by outcome.
	CompensatingDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_compensating_deletes_total",
		Help: "Total number of compensating file deletes by outcome",
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapgram_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// FeedDrops counts feed messages dropped for slow or closed browser connections.
	FeedDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_feed_dropped_messages_total",
		Help: "Total number of feed messages dropped due to backpressure",
	}, []string{"reason"})

	// RealtimeEvents counts platform realtime events by channel kind.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_realtime_events_total",
		Help: "Total number of realtime events received from the platform",
	}, []string{"event"})
)
