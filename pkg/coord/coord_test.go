package coord

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCoordinatorLocalOnly(t *testing.T) {
	ctx := context.Background()
	c := New(Options{GlobalSlots: 2, CacheTTL: time.Minute}, nil, zap.NewNop())
	defer func() { _ = c.Close(ctx) }()

	release, err := c.Acquire(ctx)
	require.NoError(t, err)
	release()

	c.CachePut(ctx, "k", []byte("v"))
	got, ok := c.CacheGet(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	assert.NoError(t, c.Ping(ctx))
}

func TestCoordinatorDistributed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c := New(Options{
		GlobalSlots: 2,
		CacheTTL:    time.Minute,
		Redis:       &RedisOptions{Addr: mr.Addr(), RetryDelay: 5 * time.Millisecond, MaxRetries: 2},
	}, nil, zap.NewNop())
	defer func() { _ = c.Close(ctx) }()

	release, err := c.Acquire(ctx)
	require.NoError(t, err)

	// The slot is visible in the shared store.
	val, err := mr.Get(semaphoreKey)
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	release()

	c.CachePut(ctx, "k", []byte("v"))
	got, ok := c.CacheGet(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.True(t, mr.Exists(cacheKeyPrefix+"k"))

	assert.NoError(t, c.Ping(ctx))
}

func TestCoordinatorFallsBackWhenRedisDies(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c := New(Options{
		GlobalSlots: 2,
		CacheTTL:    time.Minute,
		Redis:       &RedisOptions{Addr: mr.Addr(), RetryDelay: 5 * time.Millisecond, MaxRetries: 2},
	}, nil, zap.NewNop())
	defer func() { _ = c.Close(ctx) }()

	// Establish the connection, then kill the store mid-lifetime.
	release, err := c.Acquire(ctx)
	require.NoError(t, err)
	release()

	mr.Close()

	// Callers keep acquiring slots; the facade degraded to local state.
	release, err = c.Acquire(ctx)
	require.NoError(t, err)
	release()

	// The cache degrades too.
	c.CachePut(ctx, "k2", []byte("v2"))
	got, ok := c.CacheGet(ctx, "k2")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	assert.Error(t, c.Ping(ctx))
}

func TestCoordinatorRedisMissIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c := New(Options{
		GlobalSlots: 1,
		CacheTTL:    time.Minute,
		Redis:       &RedisOptions{Addr: mr.Addr()},
	}, nil, zap.NewNop())
	defer func() { _ = c.Close(ctx) }()

	// Warm up the connection state.
	require.NoError(t, c.Ping(ctx))

	// Seed only the local cache; while redis answers, its miss wins.
	c.local.cache.Put(ctx, "k", []byte("stale"))
	_, ok := c.CacheGet(ctx, "k")
	assert.False(t, ok)
}
