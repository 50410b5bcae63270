// Package coord provides the coordination layer behind one facade: a global
// admission semaphore, a shared result cache, and a metrics sink.
//
// Two implementations exist. The distributed one serializes through Redis
// atomic primitives so limits and cache hits span processes; the local one
// is per-process. The facade hides which is active: callers acquire slots
// and probe the cache without knowing, and when Redis becomes unreachable
// the facade degrades to local state and keeps answering.
package coord

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var errRedisDown = errors.New("distributed coordination store unreachable, running on local fallback")

// Semaphore is one tier of admission control. Acquire blocks until a slot
// is free or ctx is done.
type Semaphore interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context)

	// InUse reports the current number of held slots, for gauges.
	InUse(ctx context.Context) (int64, error)
}

// Cache is the shared result cache. Values are opaque serialized result
// sets; keying and serialization are the caller's concern.
type Cache interface {
	// Get returns the cached value, or ok=false on miss or expiry.
	Get(ctx context.Context, key string) (val []byte, ok bool)

	// Put stores a value best-effort. Oversized values are silently
	// skipped; failures are logged, never raised.
	Put(ctx context.Context, key string, val []byte)
}

// Options configures the coordination layer.
type Options struct {
	// GlobalSlots is the admission cap N shared by all searches.
	GlobalSlots int64

	// CacheTTL bounds the lifetime of cache entries.
	CacheTTL time.Duration

	// CacheMaxBytes and CacheMaxEntries cap the local cache. Entries
	// larger than CacheMaxBytes/10 are never cached.
	CacheMaxBytes   int64
	CacheMaxEntries int

	// CatalogPath, when set, makes the local cache clear itself whenever
	// the catalog file's mtime advances.
	CatalogPath string

	// Redis enables the distributed implementation when non-nil.
	Redis *RedisOptions
}

// Coordinator is the facade handed to the executor.
//
// When Redis is configured, semaphore and cache operations go there first
// and fall back to the local implementations on error. Selection of the
// preferred backend happens once at startup; failover is internal and
// invisible to callers.
type Coordinator struct {
	primary *redisBackend // nil when distributed mode is disabled
	local   *localBackend
	metrics Metrics
	log     *zap.Logger
}

// New assembles the coordination layer. The local backend always exists;
// the Redis backend is attached when opts.Redis is set, even if the first
// connection attempt fails (it reconnects lazily).
func New(opts Options, metrics Metrics, log *zap.Logger) *Coordinator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Coordinator{
		local:   newLocalBackend(opts),
		metrics: metrics,
		log:     log,
	}
	if opts.Redis != nil {
		c.primary = newRedisBackend(*opts.Redis, opts, log)
	}
	return c
}

// Acquire claims one global admission slot and returns its release
// function. The release is best-effort and must be called exactly once.
func (c *Coordinator) Acquire(ctx context.Context) (release func(), err error) {
	if c.primary != nil && c.primary.healthy(ctx) {
		if err := c.primary.sem.Acquire(ctx); err == nil {
			return func() { c.primary.sem.Release(context.Background()) }, nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			c.log.Warn("distributed semaphore unavailable, using local fallback", zap.Error(err))
		}
	}

	if err := c.local.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	return func() { c.local.sem.Release(context.Background()) }, nil
}

// CacheGet probes the shared cache.
func (c *Coordinator) CacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.primary != nil && c.primary.healthy(ctx) {
		if val, ok := c.primary.cache.Get(ctx, key); ok {
			return val, true
		}
		// A redis miss is authoritative in distributed mode; the local
		// cache only serves when redis is out.
		if c.primary.connected() {
			return nil, false
		}
	}
	return c.local.cache.Get(ctx, key)
}

// CachePut publishes a result set, best-effort.
func (c *Coordinator) CachePut(ctx context.Context, key string, val []byte) {
	if c.primary != nil && c.primary.healthy(ctx) {
		c.primary.cache.Put(ctx, key, val)
		if c.primary.connected() {
			return
		}
	}
	c.local.cache.Put(ctx, key, val)
}

// Metrics returns the sink. All of its operations are non-throwing.
func (c *Coordinator) Metrics() Metrics {
	return c.metrics
}

// Heartbeat samples admission-slot and connection-pool gauges. Called
// periodically by housekeeping; individual failures are logged only.
func (c *Coordinator) Heartbeat(ctx context.Context) {
	if c.primary != nil && c.primary.healthy(ctx) {
		if n, err := c.primary.sem.InUse(ctx); err == nil {
			c.metrics.SetSlotsInUse(float64(n))
		} else {
			c.log.Debug("heartbeat: semaphore sample failed", zap.Error(err))
		}
		if total, idle, err := c.primary.poolStats(); err == nil && total > 0 {
			c.metrics.SetPoolUtilization(float64(total-idle) / float64(total) * 100.0)
		}
		return
	}

	if n, err := c.local.sem.InUse(ctx); err == nil {
		c.metrics.SetSlotsInUse(float64(n))
	}
}

// Ping reports coordination health. Local-only mode is always healthy;
// distributed mode is healthy while the shared store answers.
func (c *Coordinator) Ping(ctx context.Context) error {
	if c.primary == nil {
		return nil
	}
	if !c.primary.healthy(ctx) {
		return errRedisDown
	}
	return nil
}

// Close tears down the shared-store connection. Local state needs no
// teardown.
func (c *Coordinator) Close(ctx context.Context) error {
	if c.primary != nil {
		return c.primary.close(ctx)
	}
	return nil
}
