package discover

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	w, err := NewWindow(start, end)
	require.NoError(t, err)
	assert.Equal(t, start, w.Start)
	assert.Equal(t, end, w.End)

	_, err = NewWindow(end, start)
	assert.Error(t, err)
}

func TestWindowHours(t *testing.T) {
	mk := func(h, m int) time.Time {
		return time.Date(2026, 1, 2, h, m, 0, 0, time.UTC)
	}

	t.Run("aligned", func(t *testing.T) {
		w, err := NewWindow(mk(3, 0), mk(6, 0))
		require.NoError(t, err)
		hours := w.Hours()
		require.Len(t, hours, 3)
		assert.Equal(t, mk(3, 0), hours[0])
		assert.Equal(t, mk(5, 0), hours[2])
	})

	t.Run("partial hours on both ends", func(t *testing.T) {
		w, err := NewWindow(mk(3, 30), mk(5, 10))
		require.NoError(t, err)
		hours := w.Hours()
		require.Len(t, hours, 3)
		assert.Equal(t, mk(3, 0), hours[0])
		assert.Equal(t, mk(5, 0), hours[2])
	})

	t.Run("degenerate window covers its hour", func(t *testing.T) {
		w, err := NewWindow(mk(3, 30), mk(3, 30))
		require.NoError(t, err)
		hours := w.Hours()
		require.Len(t, hours, 1)
		assert.Equal(t, mk(3, 0), hours[0])
	})

	t.Run("day boundary", func(t *testing.T) {
		start := time.Date(2026, 1, 2, 23, 15, 0, 0, time.UTC)
		end := time.Date(2026, 1, 3, 1, 0, 0, 0, time.UTC)
		w, err := NewWindow(start, end)
		require.NoError(t, err)
		hours := w.Hours()
		require.Len(t, hours, 2)
		assert.Equal(t, time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC), hours[0])
		assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), hours[1])
	})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o644))
}

func TestDiscoverDatePartitioned(t *testing.T) {
	root := t.TempDir()

	// Files for hours 10 and 11 of one day; hour 12 is absent.
	writeFile(t, filepath.Join(root, "2026", "01", "02", "10", "a.log"))
	writeFile(t, filepath.Join(root, "2026", "01", "02", "10", "b.log"))
	writeFile(t, filepath.Join(root, "2026", "01", "02", "11", "a.log"))

	tmpl, err := CompileTemplate(filepath.Join(root, "{YYYY}", "{MM}", "{DD}", "{HH}", "*.log"))
	require.NoError(t, err)

	w, err := NewWindow(
		time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	files, err := Discover(tmpl, w)
	require.NoError(t, err)
	// Missing hour 12 contributes nothing without erroring.
	assert.Len(t, files, 3)
}

func TestDiscoverStatic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "out.log"))
	writeFile(t, filepath.Join(root, "svc", "err.log"))

	tmpl, err := CompileTemplate(filepath.Join(root, "svc", "{guid}.log"))
	require.NoError(t, err)

	w, err := NewWindow(time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	files, err := Discover(tmpl, w)
	require.NoError(t, err)
	// Static templates glob once regardless of window size.
	assert.Len(t, files, 2)
}

func TestDiscoverNoFiles(t *testing.T) {
	tmpl, err := CompileTemplate(filepath.Join(t.TempDir(), "{YYYY}", "*.log"))
	require.NoError(t, err)

	w, err := NewWindow(time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	files, err := Discover(tmpl, w)
	require.NoError(t, err)
	assert.Empty(t, files)
}
