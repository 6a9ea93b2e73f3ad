// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Data API metrics
	APIRequests       *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec

	// Feed metrics
	FeedPagesFetched  prometheus.Counter
	FeedTradesFetched prometheus.Counter
	FeedCacheLookups  *prometheus.CounterVec

	// Market stream metrics
	StreamMessages *prometheus.CounterVec

	// Simulation metrics
	TradesCopied  *prometheus.CounterVec
	TradesSkipped *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	LastRunROI    prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "polymarket_copy_sim"
	}

	return &Metrics{
		// Data API metrics
		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data_api",
			Name:      "requests_total",
			Help:      "Total number of data API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		APIRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "data_api",
			Name:      "request_latency_seconds",
			Help:      "Data API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		// Feed metrics
		FeedPagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pages_fetched_total",
			Help:      "Total number of activity pages fetched",
		}),
		FeedTradesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "trades_fetched_total",
			Help:      "Total number of in-window trades fetched from the API",
		}),
		FeedCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "cache_lookups_total",
			Help:      "Total number of trade cache lookups by result",
		}, []string{"result"}),

		// Market stream metrics
		StreamMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market_stream",
			Name:      "messages_total",
			Help:      "Total number of market websocket messages by event type",
		}, []string{"event_type"}),

		// Simulation metrics
		TradesCopied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_copied_total",
			Help:      "Total number of source trades copied by side",
		}, []string{"side"}),
		TradesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_skipped_total",
			Help:      "Total number of source trades skipped by reason",
		}, []string{"reason"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		LastRunROI: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_run_roi_percent",
			Help:      "ROI of the last completed run in percent",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAPIRequest records a data API request.
func RecordAPIRequest(endpoint string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.APIRequests.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.APIRequestLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordPageFetched records one activity page and the in-window trades it held.
func RecordPageFetched(trades int) {
	DefaultMetrics.FeedPagesFetched.Inc()
	DefaultMetrics.FeedTradesFetched.Add(float64(trades))
}

// RecordCacheLookup records a trade cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.FeedCacheLookups.WithLabelValues(result).Inc()
}

// RecordStreamMessage records a market websocket message.
func RecordStreamMessage(eventType string) {
	DefaultMetrics.StreamMessages.WithLabelValues(eventType).Inc()
}

// RecordTradeCopied records a copied source trade.
func RecordTradeCopied(side string) {
	DefaultMetrics.TradesCopied.WithLabelValues(side).Inc()
}

// RecordTradeSkipped records a skipped source trade.
func RecordTradeSkipped(reason string) {
	DefaultMetrics.TradesSkipped.WithLabelValues(reason).Inc()
}

// RecordRun records a finished simulation run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordRunResult records the outcome of a successful run.
func RecordRunResult(roi float64, finishedUnix int64) {
	DefaultMetrics.LastRunROI.Set(roi)
	DefaultMetrics.LastSuccessfulRun.Set(float64(finishedUnix))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
