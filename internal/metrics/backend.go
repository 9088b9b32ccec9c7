package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend and search Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdeck",
			Name:      "backend_requests_total",
			Help:      "Total number of requests sent to the search backend",
		},
		[]string{"endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchdeck",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request duration in seconds (time to response headers)",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdeck",
			Name:      "stream_events_total",
			Help:      "Streamed events received from the backend by stream and event type",
		},
		[]string{"stream", "event"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdeck",
			Name:      "searches_total",
			Help:      "Searches by outcome (completed, superseded)",
		},
		[]string{"outcome"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdeck",
			Name:      "resource_cache_total",
			Help:      "Resource cache lookups by result (hit, miss, snapshot)",
		},
		[]string{"result"},
	)

	CacheFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchdeck",
			Name:      "resource_fetches_total",
			Help:      "Resource fetches performed by the cache by status",
		},
		[]string{"status"},
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend, search and cache metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(StreamEventsTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(CacheFetchesTotal)
	backendMetricsRegistered = true
}
