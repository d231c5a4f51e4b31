package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/mentor-api/internal/models"
)

// MetricsService wraps the Prometheus registry and keeps counters for snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	rosterInserted  prometheus.Counter
	rosterRetries   prometheus.Counter
	autosaveFlushes *prometheus.CounterVec
	autosavePending prometheus.Gauge
	atRiskFlagged   prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	rosterInsertedCount  uint64
	autosaveFlushCount   uint64
	autosaveFailureCount uint64
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	rosterInserted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_rows_inserted_total",
		Help: "Participation rows materialized by roster synchronization",
	})

	rosterRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_sync_retries_total",
		Help: "Roster synchronizations retried after a uniqueness conflict",
	})

	autosaveFlushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosave_flushes_total",
		Help: "Debounced score batches written, by result",
	}, []string{"result"})

	autosavePending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autosave_pending_lessons",
		Help: "Lessons with unsaved score edits",
	})

	atRiskFlagged := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "at_risk_students",
		Help: "Students flagged by the latest at-risk scan",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, rosterInserted, rosterRetries, autosaveFlushes, autosavePending, atRiskFlagged, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		rosterInserted:  rosterInserted,
		rosterRetries:   rosterRetries,
		autosaveFlushes: autosaveFlushes,
		autosavePending: autosavePending,
		atRiskFlagged:   atRiskFlagged,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// AddRosterInserted counts rows created by a roster synchronization.
func (m *MetricsService) AddRosterInserted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rosterInserted.Add(float64(n))
	atomic.AddUint64(&m.rosterInsertedCount, uint64(n))
}

// IncRosterRetry counts a retried synchronization.
func (m *MetricsService) IncRosterRetry() {
	if m == nil {
		return
	}
	m.rosterRetries.Inc()
}

// RecordAutoSaveFlush counts a debounced write.
func (m *MetricsService) RecordAutoSaveFlush(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.autosaveFlushes.WithLabelValues("success").Inc()
		atomic.AddUint64(&m.autosaveFlushCount, 1)
		return
	}
	m.autosaveFlushes.WithLabelValues("failure").Inc()
	atomic.AddUint64(&m.autosaveFailureCount, 1)
}

// SetAutoSavePending publishes the number of lessons waiting to be written.
func (m *MetricsService) SetAutoSavePending(n int) {
	if m == nil {
		return
	}
	m.autosavePending.Set(float64(n))
}

// SetAtRiskFlagged publishes the size of the latest at-risk list.
func (m *MetricsService) SetAtRiskFlagged(n int) {
	if m == nil {
		return
	}
	m.atRiskFlagged.Set(float64(n))
}

// Snapshot returns aggregated metrics for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		RosterRowsInserted:       atomic.LoadUint64(&m.rosterInsertedCount),
		AutoSaveFlushes:          atomic.LoadUint64(&m.autosaveFlushCount),
		AutoSaveFailures:         atomic.LoadUint64(&m.autosaveFailureCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
