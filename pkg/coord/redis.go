package coord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Redis key namespaces. All engine state in the shared store lives under
// the logai: prefix.
const (
	semaphoreKey   = "logai:sem:global"
	cacheKeyPrefix = "logai:cache:"
	counterPrefix  = "logai:metrics:"
	timingPrefix   = "logai:timings:"
)

// semKeyTTL bounds slot leakage from crashed processes: the counter key
// expires if nobody refreshes it within this window.
const semKeyTTL = time.Hour

// timingListLen is how many recent samples each timing list retains.
const timingListLen = 100

// RedisOptions configures the distributed backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// RetryDelay and MaxRetries bound semaphore acquisition attempts.
	RetryDelay time.Duration
	MaxRetries int

	// ReconnectEvery rate-limits reconnection attempts after an outage.
	ReconnectEvery time.Duration
}

func (o *RedisOptions) withDefaults() RedisOptions {
	out := *o
	if out.RetryDelay <= 0 {
		out.RetryDelay = 500 * time.Millisecond
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 100
	}
	if out.ReconnectEvery <= 0 {
		out.ReconnectEvery = 5 * time.Second
	}
	return out
}

// redisBackend owns the shared-store connection and the distributed
// semaphore and cache built on it. Connection health is tracked so the
// facade can fall back to local state during outages, and reconnection
// attempts are rate-limited.
type redisBackend struct {
	client *redis.Client
	log    *zap.Logger

	up        atomic.Bool
	reconnect *rate.Limiter

	sem   *redisSemaphore
	cache *redisCache
}

func newRedisBackend(ropts RedisOptions, opts Options, log *zap.Logger) *redisBackend {
	ropts = ropts.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:        ropts.Addr,
		Password:    ropts.Password,
		DB:          ropts.DB,
		DialTimeout: 5 * time.Second,
	})

	b := &redisBackend{
		client:    client,
		log:       log,
		reconnect: rate.NewLimiter(rate.Every(ropts.ReconnectEvery), 1),
	}
	b.sem = &redisSemaphore{backend: b, max: opts.GlobalSlots, retryDelay: ropts.RetryDelay, maxRetries: ropts.MaxRetries}
	b.cache = &redisCache{backend: b, ttl: opts.CacheTTL, maxBytes: opts.CacheMaxBytes}
	return b
}

func (b *redisBackend) connected() bool {
	return b.up.Load()
}

// healthy reports whether the store is usable, attempting a rate-limited
// reconnect when it is not.
func (b *redisBackend) healthy(ctx context.Context) bool {
	if b.up.Load() {
		return true
	}
	if !b.reconnect.Allow() {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.client.Ping(pingCtx).Err(); err != nil {
		b.log.Debug("redis ping failed", zap.Error(err))
		return false
	}
	b.up.Store(true)
	b.log.Info("redis connected", zap.String("addr", b.client.Options().Addr))
	return true
}

// markDown flips the backend unhealthy after an operation error.
func (b *redisBackend) markDown(err error) {
	if b.up.CompareAndSwap(true, false) {
		b.log.Warn("redis unreachable, coordination degrading to local state", zap.Error(err))
	}
}

func (b *redisBackend) poolStats() (total, idle int, err error) {
	stats := b.client.PoolStats()
	return int(stats.TotalConns), int(stats.IdleConns), nil
}

func (b *redisBackend) close(ctx context.Context) error {
	b.up.Store(false)
	return b.client.Close()
}

// redisSemaphore is the distributed admission semaphore: an atomic counter
// key incremented on acquire and decremented on release. Post-increment
// values over the cap are rolled back and retried after a short delay, up
// to a bounded retry count.
type redisSemaphore struct {
	backend    *redisBackend
	max        int64
	retryDelay time.Duration
	maxRetries int
}

func (s *redisSemaphore) Acquire(ctx context.Context) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		current, err := s.backend.client.Incr(ctx, semaphoreKey).Result()
		if err != nil {
			s.backend.markDown(err)
			return fmt.Errorf("semaphore incr: %w", err)
		}

		if current <= s.max {
			// Refresh the safety TTL so crashed holders cannot leak
			// slots forever.
			if err := s.backend.client.Expire(ctx, semaphoreKey, semKeyTTL).Err(); err != nil {
				s.backend.log.Debug("semaphore expire failed", zap.Error(err))
			}
			return nil
		}

		// Over the cap: undo and retry.
		if err := s.backend.client.Decr(ctx, semaphoreKey).Err(); err != nil {
			s.backend.markDown(err)
			return fmt.Errorf("semaphore rollback: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return fmt.Errorf("semaphore exhausted after %d retries (limit %d)", s.maxRetries, s.max)
}

func (s *redisSemaphore) Release(ctx context.Context) {
	// Best effort: a failed release is repaired by the key TTL.
	if err := s.backend.client.Decr(ctx, semaphoreKey).Err(); err != nil {
		s.backend.log.Warn("semaphore release failed", zap.Error(err))
	}
}

func (s *redisSemaphore) InUse(ctx context.Context) (int64, error) {
	val, err := s.backend.client.Get(ctx, semaphoreKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ Semaphore = (*redisSemaphore)(nil)

// redisCache stores serialized result sets under TTL'd keys. Eviction is
// the store's concern; the backend only enforces the oversized-entry skip.
type redisCache struct {
	backend  *redisBackend
	ttl      time.Duration
	maxBytes int64
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.backend.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.backend.markDown(err)
		return nil, false
	}
	return val, true
}

func (c *redisCache) Put(ctx context.Context, key string, val []byte) {
	if c.maxBytes > 0 && int64(len(val)) > c.maxBytes/10 {
		return
	}
	if err := c.backend.client.Set(ctx, cacheKeyPrefix+key, val, c.ttl).Err(); err != nil {
		c.backend.markDown(err)
	}
}

var _ Cache = (*redisCache)(nil)

// RedisMetrics mirrors counters and timings into the shared store so
// sibling processes see aggregate numbers. Strictly best-effort.
type RedisMetrics struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisMetrics builds a shared-store metrics mirror over its own client.
func NewRedisMetrics(opts RedisOptions, log *zap.Logger) *RedisMetrics {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisMetrics{
		client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: 5 * time.Second,
		}),
		log: log,
	}
}

func (m *RedisMetrics) incr(name string, delta int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.client.IncrBy(ctx, counterPrefix+name, delta).Err(); err != nil {
		m.log.Debug("metrics incr failed", zap.String("metric", name), zap.Error(err))
	}
}

func (m *RedisMetrics) timing(name string, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := timingPrefix + name
	pipe := m.client.Pipeline()
	pipe.LPush(ctx, key, strconv.FormatFloat(float64(d.Milliseconds()), 'f', -1, 64))
	pipe.LTrim(ctx, key, 0, timingListLen-1)
	pipe.Expire(ctx, key, time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		m.log.Debug("metrics timing failed", zap.String("metric", name), zap.Error(err))
	}
}

func (m *RedisMetrics) RecordCacheHit()  { m.incr("cache_hits", 1) }
func (m *RedisMetrics) RecordCacheMiss() { m.incr("cache_misses", 1) }

func (m *RedisMetrics) RecordSearchDuration(d time.Duration) {
	m.incr("total_searches", 1)
	m.timing("search_duration", d)
}

func (m *RedisMetrics) RecordMatches(n int64)      { m.incr("matches", n) }
func (m *RedisMetrics) RecordFilesScanned(n int64) { m.incr("files_scanned", n) }
func (m *RedisMetrics) RecordOverflow()            { m.incr("overflows", 1) }
func (m *RedisMetrics) RecordTimeout()             { m.incr("timeouts", 1) }
func (m *RedisMetrics) RecordError(kind string)    { m.incr("errors:"+kind, 1) }

// Gauges stay process-local; mirroring instantaneous values into shared
// counters would be meaningless.
func (m *RedisMetrics) SetSlotsInUse(float64)      {}
func (m *RedisMetrics) SetPoolUtilization(float64) {}

// Close releases the metrics client.
func (m *RedisMetrics) Close() error {
	return m.client.Close()
}

var _ Metrics = (*RedisMetrics)(nil)
