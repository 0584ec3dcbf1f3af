// Package metrics provides Prometheus metrics for the shatranj rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ledger metrics
	gamesRecorded     prometheus.Counter
	gamesRejected     prometheus.Counter
	ledgerCallLatency prometheus.Histogram
	ledgerErrors      prometheus.Counter

	// Rating metrics
	ratingRecalcs        prometheus.Counter
	ratingRecalcDuration prometheus.Histogram
	ratingGamesSkipped   prometheus.Counter

	// Cache metrics
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// Quota guard metrics
	quotaTrips  prometheus.Counter
	quotaResets prometheus.Counter
	quotaOpen   prometheus.Gauge

	// Identity metrics
	mergesApplied  prometheus.Counter
	rowsReconciled prometheus.Counter

	// Post-write task metrics
	tasksExecuted  prometheus.Counter
	taskFailures   prometheus.Counter
	taskQueueDepth prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of /healthz output.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shatranj",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.gamesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_recorded_total",
		Help:      "Total number of game results appended to the ledger",
	})
	m.gamesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_rejected_total",
		Help:      "Total number of game submissions rejected at validation",
	})
	m.ledgerCallLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_call_latency_milliseconds",
		Help:      "Histogram of backing store call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.ledgerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_errors_total",
		Help:      "Total number of backing store failures",
	})

	m.ratingRecalcs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_recalcs_total",
		Help:      "Total number of full rating replays",
	})
	m.ratingRecalcDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_recalc_duration_milliseconds",
		Help:      "Histogram of full rating replay duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.ratingGamesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_games_skipped_total",
		Help:      "Total number of games skipped during replay (unverified or unknown player)",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	})
	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_evictions_total",
		Help:      "Total number of cache entries removed by invalidation or expiry",
	})
	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of live cache entries",
	})

	m.quotaTrips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_trips_total",
		Help:      "Total number of times the quota breaker opened",
	})
	m.quotaResets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_resets_total",
		Help:      "Total number of manual quota breaker resets",
	})
	m.quotaOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_open",
		Help:      "1 while the quota breaker is open, 0 while closed",
	})

	m.mergesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merges_applied_total",
		Help:      "Total number of player merge operations applied",
	})
	m.rowsReconciled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_reconciled_total",
		Help:      "Total number of ledger rows rewritten by identity reconciliation",
	})

	m.tasksExecuted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postwrite_tasks_total",
		Help:      "Total number of post-write tasks executed",
	})
	m.taskFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postwrite_task_failures_total",
		Help:      "Total number of post-write tasks that failed (logged, never propagated)",
	})
	m.taskQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postwrite_queue_depth",
		Help:      "Current number of queued post-write tasks",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry metrics are collected on, for promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordGameRecorded increments the recorded-games counter.
func RecordGameRecorded() {
	globalManager.gamesRecorded.Inc()
}

// RecordGameRejected increments the rejected-games counter.
func RecordGameRejected() {
	globalManager.gamesRejected.Inc()
}

// RecordLedgerError increments the ledger error counter.
func RecordLedgerError() {
	globalManager.ledgerErrors.Inc()
}

// RecordLedgerCallLatency records a backing-store call latency in milliseconds.
func RecordLedgerCallLatency(ms float64) {
	globalManager.ledgerCallLatency.Observe(ms)
}

// RecordRatingRecalc increments the rating replay counter.
func RecordRatingRecalc() {
	globalManager.ratingRecalcs.Inc()
}

// RecordRatingRecalcDuration records a full replay duration in milliseconds.
func RecordRatingRecalcDuration(ms float64) {
	globalManager.ratingRecalcDuration.Observe(ms)
}

// RecordRatingGameSkipped increments the skipped-games counter.
func RecordRatingGameSkipped() {
	globalManager.ratingGamesSkipped.Inc()
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// UpdateCacheEntries sets the current cache entry count.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordQuotaTrip increments the breaker trip counter.
func RecordQuotaTrip() {
	globalManager.quotaTrips.Inc()
}

// RecordQuotaReset increments the breaker reset counter.
func RecordQuotaReset() {
	globalManager.quotaResets.Inc()
}

// UpdateQuotaOpen sets the breaker state gauge.
func UpdateQuotaOpen(open bool) {
	if open {
		globalManager.quotaOpen.Set(1)
		return
	}
	globalManager.quotaOpen.Set(0)
}

// RecordMergeApplied increments the applied-merges counter.
func RecordMergeApplied() {
	globalManager.mergesApplied.Inc()
}

// RecordRowsReconciled adds to the reconciled-rows counter.
func RecordRowsReconciled(n int) {
	globalManager.rowsReconciled.Add(float64(n))
}

// RecordTaskExecuted increments the executed-tasks counter.
func RecordTaskExecuted() {
	globalManager.tasksExecuted.Inc()
}

// RecordTaskFailure increments the failed-tasks counter.
func RecordTaskFailure() {
	globalManager.taskFailures.Inc()
}

// UpdateTaskQueueDepth sets the current task queue depth.
func UpdateTaskQueueDepth(n int) {
	globalManager.taskQueueDepth.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
