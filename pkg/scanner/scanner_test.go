package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLine(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, ok := parseLine("/logs/a.log:42:ERROR something broke", "auth")
		require.True(t, ok)
		assert.Equal(t, "auth", m.Service)
		assert.Equal(t, "/logs/a.log", m.FilePath)
		assert.Equal(t, 42, m.LineNumber)
		assert.Equal(t, "ERROR something broke", m.Content.String())
	})

	t.Run("content containing colons", func(t *testing.T) {
		m, ok := parseLine("/logs/a.log:7:12:30:05 request failed", "auth")
		require.True(t, ok)
		assert.Equal(t, 7, m.LineNumber)
		assert.Equal(t, "12:30:05 request failed", m.Content.String())
	})

	t.Run("malformed", func(t *testing.T) {
		_, ok := parseLine("no separators here", "auth")
		assert.False(t, ok)

		_, ok = parseLine("/logs/a.log:notanumber:content", "auth")
		assert.False(t, ok)

		_, ok = parseLine("/logs/a.log:0:line numbers are 1-based", "auth")
		assert.False(t, ok)
	})
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScan(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", "ok line\nERROR timeout talking to db\nanother ok\n")
	b := writeLog(t, dir, "b.log", "error TIMEOUT again\nfine\n")

	var matches []Match
	err := s.Scan(context.Background(), []string{a, b}, "timeout", "auth", func(m Match) {
		matches = append(matches, m)
	})
	require.NoError(t, err)

	// Matching is case-insensitive and every match is tagged.
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "auth", m.Service)
		assert.GreaterOrEqual(t, m.LineNumber, 1)
	}
}

func TestScanLiteralPattern(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	// A regex metacharacter pattern must match literally, not as a regex.
	path := writeLog(t, dir, "a.log", "value a.b here\nvalue axb here\n")

	var matches []Match
	err := s.Scan(context.Background(), []string{path}, "a.b", "svc", func(m Match) {
		matches = append(matches, m)
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].LineNumber)
}

func TestScanNoMatches(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	path := writeLog(t, dir, "a.log", "nothing relevant\n")

	called := false
	err := s.Scan(context.Background(), []string{path}, "absent-pattern", "svc", func(Match) {
		called = true
	})
	// Exit code 1 with no output means "no matches", not failure.
	require.NoError(t, err)
	assert.False(t, called)
}

func TestScanEmptyFileList(t *testing.T) {
	s := New(zap.NewNop())
	err := s.Scan(context.Background(), nil, "x", "svc", func(Match) {
		t.Fatal("emit must not be called")
	})
	assert.NoError(t, err)
}

func TestScanCancelled(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	path := writeLog(t, dir, "a.log", "line with target\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Scan(ctx, []string{path}, "target", "svc", func(Match) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanStructuredLines(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	path := writeLog(t, dir, "a.log", `{"level":"error","msg":"timeout waiting"}`+"\n")

	var matches []Match
	err := s.Scan(context.Background(), []string{path}, "timeout", "svc", func(m Match) {
		matches = append(matches, m)
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Content.IsStructured())
}

func TestScanManyFiles(t *testing.T) {
	s := New(zap.NewNop())
	if !s.Available() {
		t.Skip("no scanning tool on PATH")
	}

	dir := t.TempDir()
	var paths []string
	for i := 0; i < 50; i++ {
		paths = append(paths, writeLog(t, dir, fmt.Sprintf("f%02d.log", i), "needle here\n"))
	}

	count := 0
	err := s.Scan(context.Background(), paths, "needle", "svc", func(Match) { count++ })
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
