package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Support-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Message send outcomes
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "messages_sent_total",
			Help:      "Total messages accepted, labelled by sender type and conversation type",
		},
		[]string{"sender_type", "conversation_type"},
	)

	// Sends rejected by the cooldown limiter
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "rate_limited_total",
			Help:      "Total sends rejected by the cooldown limiter",
		},
	)

	// Live event-stream subscribers
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "realtime_subscribers",
			Help:      "Currently connected event-stream subscribers",
		},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "queue_depth",
			Help:      "Auto-reply job queue depth",
		},
	)

	// Auto-reply jobs counter
	ReplyJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "reply_jobs_total",
			Help:      "Total auto-reply jobs processed",
		},
		[]string{"status"},
	)

	// DB query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travelbook",
			Subsystem: "support_api",
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"query_type"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordMessageSent records an accepted message
func RecordMessageSent(senderType, conversationType string) {
	MessagesSentTotal.WithLabelValues(senderType, conversationType).Inc()
}

// RecordRateLimited records a send rejected by the cooldown limiter
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// SetQueueDepth sets the current queue depth
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordReplyJob records an auto-reply job outcome
func RecordReplyJob(status string) {
	ReplyJobsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(queryType string, durationSec float64) {
	DBQueryDuration.WithLabelValues(queryType).Observe(durationSec)
}
