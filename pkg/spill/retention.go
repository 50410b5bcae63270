package spill

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Sweep walks the output root and deletes spill files whose embedded
// timestamp is older than the retention window. Session directories left
// empty afterwards are removed too.
//
// Sweep is tolerant: individual failures are logged and the walk continues.
func (s *Store) Sweep(ctx context.Context, retention time.Duration) (removed int, err error) {
	cutoff := time.Now().UTC().Add(-retention)

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("retention sweep: walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		m := fileNameRE.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		ts, perr := time.ParseInLocation(timestampForm, m[2], time.UTC)
		if perr != nil {
			return nil
		}
		if ts.After(cutoff) {
			return nil
		}

		if rerr := os.Remove(path); rerr != nil {
			s.log.Warn("retention sweep: remove failed", zap.String("path", path), zap.Error(rerr))
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil {
		return removed, walkErr
	}

	s.removeEmptySessionDirs()
	return removed, nil
}

// SweepLoop runs Sweep at the given interval until ctx is done. Iteration
// failures are logged, never fatal.
func (s *Store) SweepLoop(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx, retention)
			if err != nil {
				s.log.Warn("retention sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.log.Info("retention sweep", zap.Int("removed", removed))
			}
		}
	}
}

func (s *Store) removeEmptySessionDirs() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		if dir == s.sessionDir {
			continue
		}
		// Remove succeeds only when the directory is empty.
		_ = os.Remove(dir)
	}
}
