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
	// Feed metrics
	TradesIngested prometheus.Counter
	DecodeErrors   prometheus.Counter
	FeedConnects   prometheus.Counter

	// Pipeline metrics
	EnrichLatency   prometheus.Histogram
	Reconfigures    *prometheus.CounterVec
	AbsorptionTicks prometheus.Counter

	// Hub metrics
	Subscribers    prometheus.Gauge
	BroadcastsSent prometheus.Counter
	DroppedSends   prometheus.Counter
	DroppedTicks   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "imbalance_engine"
	}

	return &Metrics{
		TradesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "trades_ingested_total",
			Help:      "Total number of upstream trades decoded and enriched",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "decode_errors_total",
			Help:      "Total number of malformed upstream messages skipped",
		}),
		FeedConnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "connects_total",
			Help:      "Total number of successful upstream connections (reconnects included)",
		}),
		EnrichLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "enrich_latency_seconds",
			Help:      "Per-trade enrichment latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		Reconfigures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reconfigures_total",
			Help:      "Total number of engine reconfiguration attempts by status",
		}, []string{"status"}),
		AbsorptionTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "absorption_ticks_total",
			Help:      "Total number of enriched ticks flagged as absorption",
		}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Current number of connected subscribers",
		}),
		BroadcastsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "broadcasts_total",
			Help:      "Total number of fan-out rounds",
		}),
		DroppedSends: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "dropped_sends_total",
			Help:      "Total number of subscriber sends that failed and removed the subscriber",
		}),
		DroppedTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "dropped_ticks_total",
			Help:      "Total number of enriched ticks dropped because the hub inbox was full",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTradeIngested increments the trades ingested counter.
func RecordTradeIngested() {
	DefaultMetrics.TradesIngested.Inc()
}

// RecordDecodeError increments the decode errors counter.
func RecordDecodeError() {
	DefaultMetrics.DecodeErrors.Inc()
}

// RecordFeedConnect increments the upstream connects counter.
func RecordFeedConnect() {
	DefaultMetrics.FeedConnects.Inc()
}

// RecordEnrichLatency records one enrichment duration.
func RecordEnrichLatency(seconds float64) {
	DefaultMetrics.EnrichLatency.Observe(seconds)
}

// RecordReconfigure records a reconfiguration attempt.
func RecordReconfigure(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	DefaultMetrics.Reconfigures.WithLabelValues(status).Inc()
}

// RecordAbsorption increments the absorption tick counter.
func RecordAbsorption() {
	DefaultMetrics.AbsorptionTicks.Inc()
}

// SetSubscribers updates the connected-subscriber gauge.
func SetSubscribers(n int) {
	DefaultMetrics.Subscribers.Set(float64(n))
}

// RecordBroadcast increments the fan-out round counter.
func RecordBroadcast() {
	DefaultMetrics.BroadcastsSent.Inc()
}

// RecordDroppedSend increments the failed-send counter.
func RecordDroppedSend() {
	DefaultMetrics.DroppedSends.Inc()
}

// RecordDroppedTick increments the dropped-tick counter.
func RecordDroppedTick() {
	DefaultMetrics.DroppedTicks.Inc()
}
