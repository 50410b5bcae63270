package coord

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the sink for engine instrumentation. Every operation is
// best-effort and non-throwing: metrics failures never influence search
// outcomes.
type Metrics interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordSearchDuration(d time.Duration)
	RecordMatches(n int64)
	RecordFilesScanned(n int64)
	RecordOverflow()
	RecordTimeout()
	RecordError(kind string)
	SetSlotsInUse(v float64)
	SetPoolUtilization(v float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit()                      {}
func (NopMetrics) RecordCacheMiss()                     {}
func (NopMetrics) RecordSearchDuration(time.Duration)   {}
func (NopMetrics) RecordMatches(int64)                  {}
func (NopMetrics) RecordFilesScanned(int64)             {}
func (NopMetrics) RecordOverflow()                      {}
func (NopMetrics) RecordTimeout()                       {}
func (NopMetrics) RecordError(string)                   {}
func (NopMetrics) SetSlotsInUse(float64)                {}
func (NopMetrics) SetPoolUtilization(float64)           {}

// PromMetrics exposes the engine's counters, gauges, and histograms through
// Prometheus, and keeps atomic shadow counters so a summary snapshot can be
// served without scraping.
type PromMetrics struct {
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	duration     prometheus.Histogram
	matches      prometheus.Counter
	filesScanned prometheus.Counter
	overflows    prometheus.Counter
	timeouts     prometheus.Counter
	errors       *prometheus.CounterVec
	slotsInUse   prometheus.Gauge
	poolUtil     prometheus.Gauge

	hitCount      atomic.Int64
	missCount     atomic.Int64
	overflowCount atomic.Int64
	timeoutCount  atomic.Int64

	errMu      sync.Mutex
	errsByKind map[string]int64
}

// NewPromMetrics builds and registers the metric set. Pass a dedicated
// registry in tests; nil registers against the default registry.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PromMetrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_cache_hits_total",
			Help: "Search cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_cache_misses_total",
			Help: "Search cache misses",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logai_search_duration_seconds",
			Help:    "Wall-clock duration of searches",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_matches_total",
			Help: "Matches produced across all searches",
		}),
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_files_scanned_total",
			Help: "Log files handed to the scanner",
		}),
		overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_overflow_total",
			Help: "Searches whose results exceeded the preview limit",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logai_timeout_total",
			Help: "Searches cancelled by the overall deadline",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logai_errors_total",
			Help: "Errors by kind",
		}, []string{"kind"}),
		slotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logai_admission_slots_in_use",
			Help: "Admission slots currently held",
		}),
		poolUtil: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logai_redis_pool_utilization_pct",
			Help: "Shared-store connection pool utilization percentage",
		}),
		errsByKind: make(map[string]int64),
	}

	reg.MustRegister(m.cacheHits, m.cacheMisses, m.duration, m.matches,
		m.filesScanned, m.overflows, m.timeouts, m.errors, m.slotsInUse, m.poolUtil)
	return m
}

func (m *PromMetrics) RecordCacheHit()  { m.cacheHits.Inc(); m.hitCount.Add(1) }
func (m *PromMetrics) RecordCacheMiss() { m.cacheMisses.Inc(); m.missCount.Add(1) }

func (m *PromMetrics) RecordSearchDuration(d time.Duration) {
	m.duration.Observe(d.Seconds())
}

func (m *PromMetrics) RecordMatches(n int64) {
	if n > 0 {
		m.matches.Add(float64(n))
	}
}

func (m *PromMetrics) RecordFilesScanned(n int64) {
	if n > 0 {
		m.filesScanned.Add(float64(n))
	}
}

func (m *PromMetrics) RecordOverflow() { m.overflows.Inc(); m.overflowCount.Add(1) }
func (m *PromMetrics) RecordTimeout()  { m.timeouts.Inc(); m.timeoutCount.Add(1) }

func (m *PromMetrics) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
	m.errMu.Lock()
	m.errsByKind[kind]++
	m.errMu.Unlock()
}

func (m *PromMetrics) SetSlotsInUse(v float64)      { m.slotsInUse.Set(v) }
func (m *PromMetrics) SetPoolUtilization(v float64) { m.poolUtil.Set(v) }

// Summary is a point-in-time snapshot for the diagnostics endpoint.
func (m *PromMetrics) Summary() map[string]any {
	hits, misses := m.hitCount.Load(), m.missCount.Load()
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100.0
	}

	m.errMu.Lock()
	errs := make(map[string]int64, len(m.errsByKind))
	for k, v := range m.errsByKind {
		errs[k] = v
	}
	m.errMu.Unlock()

	return map[string]any{
		"cache_hits":             hits,
		"cache_misses":           misses,
		"cache_hit_rate_pct":     hitRate,
		"total_searches":         total,
		"searches_with_overflow": m.overflowCount.Load(),
		"searches_with_timeout":  m.timeoutCount.Load(),
		"errors_by_type":         errs,
	}
}

var _ Metrics = (*PromMetrics)(nil)

// MultiMetrics fans every observation out to several sinks, letting the
// process-local Prometheus set and the shared-store counters stay in step.
type MultiMetrics []Metrics

func (mm MultiMetrics) RecordCacheHit() {
	for _, m := range mm {
		m.RecordCacheHit()
	}
}

func (mm MultiMetrics) RecordCacheMiss() {
	for _, m := range mm {
		m.RecordCacheMiss()
	}
}

func (mm MultiMetrics) RecordSearchDuration(d time.Duration) {
	for _, m := range mm {
		m.RecordSearchDuration(d)
	}
}

func (mm MultiMetrics) RecordMatches(n int64) {
	for _, m := range mm {
		m.RecordMatches(n)
	}
}

func (mm MultiMetrics) RecordFilesScanned(n int64) {
	for _, m := range mm {
		m.RecordFilesScanned(n)
	}
}

func (mm MultiMetrics) RecordOverflow() {
	for _, m := range mm {
		m.RecordOverflow()
	}
}

func (mm MultiMetrics) RecordTimeout() {
	for _, m := range mm {
		m.RecordTimeout()
	}
}

func (mm MultiMetrics) RecordError(kind string) {
	for _, m := range mm {
		m.RecordError(kind)
	}
}

func (mm MultiMetrics) SetSlotsInUse(v float64) {
	for _, m := range mm {
		m.SetSlotsInUse(v)
	}
}

func (mm MultiMetrics) SetPoolUtilization(v float64) {
	for _, m := range mm {
		m.SetPoolUtilization(v)
	}
}

var _ Metrics = (MultiMetrics)(nil)
