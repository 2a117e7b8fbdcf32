package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Chat pipeline metrics
	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_chat_messages_total",
			Help: "Total number of chat messages processed",
		},
		[]string{"strategy", "language", "status"},
	)

	retrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_retrieval_duration_seconds",
			Help:    "Semantic retrieval duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_generation_duration_seconds",
			Help:    "LLM generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	streamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_stream_chunks_total",
			Help: "Total number of streamed response chunks",
		},
	)

	safetyRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_safety_rejections_total",
			Help: "Total number of messages rejected by the safety gate",
		},
		[]string{"scanner"},
	)

	// System metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_active_sessions",
			Help: "Number of active chat sessions",
		},
	)

	catalogRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_catalog_rows",
			Help: "Number of rows in the loaded product catalog",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			chatMessagesTotal,
			retrievalDuration,
			generationDuration,
			streamChunksTotal,
			safetyRejectionsTotal,
			activeSessions,
			catalogRows,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordChatMessage records one processed chat message.
func RecordChatMessage(strategy, language, status string) {
	chatMessagesTotal.WithLabelValues(strategy, language, status).Inc()
}

// RecordRetrieval records a semantic retrieval call.
func RecordRetrieval(store string, duration time.Duration) {
	retrievalDuration.WithLabelValues(store).Observe(duration.Seconds())
}

// RecordGeneration records an LLM generation call.
func RecordGeneration(duration time.Duration) {
	generationDuration.Observe(duration.Seconds())
}

// RecordStreamChunk counts a streamed chunk.
func RecordStreamChunk() {
	streamChunksTotal.Inc()
}

// RecordSafetyRejection counts a safety gate rejection.
func RecordSafetyRejection(scanner string) {
	safetyRejectionsTotal.WithLabelValues(scanner).Inc()
}

// SetActiveSessions sets the active sessions gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetCatalogRows sets the catalog rows gauge.
func SetCatalogRows(count int) {
	catalogRows.Set(float64(count))
}
