// Package metrics provides Prometheus instrumentation for the subledger service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "subledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// CheckoutIntentsTotal counts checkout intent creations by outcome.
	CheckoutIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "checkout_intents_total",
			Help:      "Total checkout intent creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// WebhookEventsTotal counts inbound provider events by processing result.
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "webhook_events_total",
			Help:      "Total inbound payment provider events by result.",
		},
		[]string{"result"},
	)

	// EntitlementUpdatesTotal counts organization entitlement writes by status.
	EntitlementUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "entitlement_updates_total",
			Help:      "Total organization entitlement updates by status.",
		},
		[]string{"status"},
	)

	// LedgerEntriesTotal counts subscription ledger appends.
	LedgerEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subledger",
		Name:      "ledger_entries_total",
		Help:      "Total subscription ledger entries appended.",
	})

	// DuplicateEventsTotal counts provider events skipped as duplicates.
	DuplicateEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subledger",
		Name:      "duplicate_events_total",
		Help:      "Total provider events skipped because the ledger already held their id.",
	})

	// RepairSweepsTotal counts entitlement repair sweeps by result.
	RepairSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "repair_sweeps_total",
			Help:      "Total entitlement repair sweeps by result.",
		},
		[]string{"result"},
	)

	// ActiveStreamClients tracks connected WebSocket stream clients.
	ActiveStreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "subledger",
			Name:      "active_stream_clients",
			Help:      "Number of currently connected event stream clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "subledger", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "subledger", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "subledger", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "subledger", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CheckoutIntentsTotal,
		WebhookEventsTotal,
		EntitlementUpdatesTotal,
		LedgerEntriesTotal,
		DuplicateEventsTotal,
		RepairSweepsTotal,
		ActiveStreamClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
