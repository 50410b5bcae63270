package coord

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// localBackend is the per-process fallback: a weighted semaphore and an
// LRU+TTL cache. No TTL applies to slots; they are strictly reclaimed on
// release.
type localBackend struct {
	sem   *localSemaphore
	cache *LocalCache
}

func newLocalBackend(opts Options) *localBackend {
	return &localBackend{
		sem:   newLocalSemaphore(opts.GlobalSlots),
		cache: NewLocalCache(opts.CacheTTL, opts.CacheMaxBytes, opts.CacheMaxEntries, opts.CatalogPath),
	}
}

// localSemaphore is an in-process counting semaphore with an in-use gauge.
type localSemaphore struct {
	w     *semaphore.Weighted
	inUse atomic.Int64
	cap   int64
}

func newLocalSemaphore(n int64) *localSemaphore {
	if n <= 0 {
		n = 1
	}
	return &localSemaphore{w: semaphore.NewWeighted(n), cap: n}
}

func (s *localSemaphore) Acquire(ctx context.Context) error {
	if err := s.w.Acquire(ctx, 1); err != nil {
		return err
	}
	s.inUse.Add(1)
	return nil
}

func (s *localSemaphore) Release(context.Context) {
	s.inUse.Add(-1)
	s.w.Release(1)
}

func (s *localSemaphore) InUse(context.Context) (int64, error) {
	return s.inUse.Load(), nil
}

var _ Semaphore = (*localSemaphore)(nil)
