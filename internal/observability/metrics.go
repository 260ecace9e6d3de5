package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons for the parcels_skipped counter.
const (
	SkipNoPolygon = "no_polygon"
	SkipOrphaned  = "orphaned"
	SkipLookup    = "owner_lookup_failed"
)

// Failure reasons for the notifications_failed counter.
const (
	FailIneligible = "ineligible"
	FailUserLookup = "user_lookup_failed"
	FailExecutor   = "executor_error"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alert correlation pipeline.
type Metrics struct {
	SweepsTotal     *prometheus.CounterVec // labels: outcome={success,error}
	AlertsProcessed prometheus.Counter
	ParcelsScanned  prometheus.Counter
	ParcelsSkipped  *prometheus.CounterVec // labels: reason
	UsersAffected   prometheus.Counter

	NotificationsSent   prometheus.Counter
	NotificationsFailed *prometheus.CounterVec // labels: reason

	// Alert cache metrics.
	CacheRefreshes   *prometheus.CounterVec // labels: outcome={success,error}
	CacheStaleServes prometheus.Counter

	CorrelationDuration prometheus.Histogram
	PipelineRunning     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SweepsTotal,
		m.AlertsProcessed,
		m.ParcelsScanned,
		m.ParcelsSkipped,
		m.UsersAffected,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.CacheRefreshes,
		m.CacheStaleServes,
		m.CorrelationDuration,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct pipelines repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "sweeps_total",
			Help:      "Correlation sweeps by outcome.",
		}, []string{"outcome"}),
		AlertsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "alerts_processed_total",
			Help:      "Weather alerts run through correlation.",
		}),
		ParcelsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "parcels_scanned_total",
			Help:      "Parcels checked against an alert polygon.",
		}),
		ParcelsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "parcels_skipped_total",
			Help:      "Parcels excluded from correlation by reason.",
		}, []string{"reason"}),
		UsersAffected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "users_affected_total",
			Help:      "Distinct affected users resolved, summed per alert.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "notifications_sent_total",
			Help:      "Notification invocations accepted by the executor.",
		}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "notifications_failed_total",
			Help:      "Notification dispatches that did not succeed, by reason.",
		}, []string{"reason"}),
		CacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "alert_cache_refreshes_total",
			Help:      "Upstream alert feed refresh attempts by outcome.",
		}, []string{"outcome"}),
		CacheStaleServes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parcel_alert",
			Name:      "alert_cache_stale_serves_total",
			Help:      "Reads answered with stale data after a failed refresh.",
		}),
		CorrelationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parcel_alert",
			Name:      "correlation_duration_seconds",
			Help:      "Duration of a complete resolve-and-dispatch batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parcel_alert",
			Name:      "pipeline_running",
			Help:      "1 when the sweep loop is active, 0 when shut down.",
		}),
	}
}
