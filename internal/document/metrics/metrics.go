package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle engine's Prometheus metrics. Construct once per
// process; engine instances accept a nil *Metrics in tests.
type Metrics struct {
	DocumentsExpired    prometheus.Counter
	FeedEventsApplied   *prometheus.CounterVec
	FeedEventsDiscarded prometheus.Counter
	NotificationsActive prometheus.Gauge
	TickDuration        prometheus.Histogram
	TickPersistFailures prometheus.Counter
}

// New creates and registers all engine metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complyline_documents_expired_total",
			Help: "Documents moved to Expired by the recomputation sweep.",
		}),
		FeedEventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complyline_feed_events_applied_total",
			Help: "Change feed events applied to the in-memory collection.",
		}, []string{"event_type"}),
		FeedEventsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complyline_feed_events_discarded_total",
			Help: "Change feed events discarded as stale by the last-write-wins rule.",
		}),
		NotificationsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "complyline_notifications_active",
			Help: "Notifications currently derived from the document collection.",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complyline_tick_duration_seconds",
			Help:    "Duration of the periodic recomputation sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		TickPersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complyline_tick_persist_failures_total",
			Help: "Store writes of recomputed documents that failed and will retry next tick.",
		}),
	}
}
