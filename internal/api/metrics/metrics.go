// Package metrics defines and registers all custom Prometheus metrics for the
// tracking service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Geocode metrics ───────────────────────────────────────────────────────────

// GeocodeLookupsTotal counts resolve outcomes.
// Label:
//   - origin: "memory", "persistent", "network" or "not_found"
var GeocodeLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_lookups_total",
		Help:      "Total number of geocode resolutions, by the tier that answered.",
	},
	[]string{"origin"},
)

// GeocodeNetworkDuration measures provider round trips.
// Label:
//   - result: "ok", "empty" or "error"
var GeocodeNetworkDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geocode_network_duration_seconds",
		Help:      "Duration of geocoding provider requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// GeocodeCacheWriteErrorsTotal counts swallowed durable-tier write failures.
var GeocodeCacheWriteErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_cache_write_errors_total",
		Help:      "Total number of durable geocode cache writes that failed.",
	},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsProcessedTotal counts events that were published to subscribers.
// Labels:
//   - status: the status carried by the delta
//   - source: the event source reported by the sender (e.g. "driver_app")
var EventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_processed_total",
		Help:      "Total number of tracking events published to subscribers.",
	},
	[]string{"status", "source"},
)

// EventsErrorsTotal counts events that failed processing.
// Label:
//   - reason: e.g. "invalid_tracking_number", "publish_failed", "decode_failed"
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of tracking events that failed processing.",
	},
	[]string{"reason"},
)

// EventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var EventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventProcessingDuration measures dequeue-to-publish latency.
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of event processing from dequeue to publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)

// ── Hub metrics ───────────────────────────────────────────────────────────────

// HubConnections is the number of open websocket clients.
var HubConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_connections",
		Help:      "Current number of connected tracking clients.",
	},
)

// HubSubscriptions is the number of (client, tracking number) memberships.
var HubSubscriptions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_subscriptions",
		Help:      "Current number of active room memberships across all clients.",
	},
)

// HubDeltasDroppedTotal counts deltas dropped because a client's send buffer
// was full.
var HubDeltasDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_deltas_dropped_total",
		Help:      "Total number of deltas dropped for slow clients.",
	},
)
