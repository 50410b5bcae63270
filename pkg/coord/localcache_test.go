package coord

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, 1<<20, 10, "")

	c.Put(ctx, "k", []byte("value"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestLocalCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(30*time.Millisecond, 1<<20, 10, "")

	c.Put(ctx, "k", []byte("value"))
	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	// Expired entries are deleted on the read path.
	assert.Equal(t, 0, c.Len())
}

func TestLocalCacheEntryCap(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, 1<<20, 3, "")

	for i := 0; i < 5; i++ {
		c.Put(ctx, fmt.Sprintf("k%d", i), []byte("v"))
	}
	assert.Equal(t, 3, c.Len())

	// Oldest entries were evicted.
	_, ok := c.Get(ctx, "k0")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "k4")
	assert.True(t, ok)
}

func TestLocalCacheLRUOrder(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, 1<<20, 2, "")

	c.Put(ctx, "a", []byte("v"))
	c.Put(ctx, "b", []byte("v"))

	// Touch a so b becomes the eviction victim.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)

	c.Put(ctx, "c", []byte("v"))

	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestLocalCacheByteCap(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, 100, 10, "")

	c.Put(ctx, "a", make([]byte, 8))
	c.Put(ctx, "b", make([]byte, 8))
	assert.Equal(t, int64(16), c.Bytes())

	// Inserting under pressure evicts from the back until the cap holds.
	for i := 0; i < 20; i++ {
		c.Put(ctx, fmt.Sprintf("k%d", i), make([]byte, 9))
	}
	assert.LessOrEqual(t, c.Bytes(), int64(100))
}

func TestLocalCacheSkipsOversizedValues(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, 100, 10, "")

	// Values above maxBytes/10 are never stored.
	c.Put(ctx, "big", make([]byte, 11))
	_, ok := c.Get(ctx, "big")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLocalCacheClearsOnCatalogChange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "services.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("services: []\n"), 0o644))

	c := NewLocalCache(time.Minute, 1<<20, 10, catalogPath)
	c.Put(ctx, "k", []byte("v"))

	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	// Advance the file mtime past filesystem timestamp granularity.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(catalogPath, future, future))

	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
