package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []Record {
	t.Helper()
	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec Record
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestJSONLWriterProgress(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "session-1")

	err := w.WriteProgress(context.Background(), &ProgressRecord{
		Pattern:       "timeout",
		TotalMatches:  12,
		PerService:    map[string]int64{"auth": 12},
		FilesSearched: 3,
	})
	require.NoError(t, err)

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, TypeProgress, records[0].Type)
	assert.Equal(t, "session-1", records[0].SessionID)
	assert.False(t, records[0].TS.IsZero())

	var prog ProgressRecord
	require.NoError(t, json.Unmarshal(records[0].Data, &prog))
	assert.Equal(t, int64(12), prog.TotalMatches)
	assert.Equal(t, int64(12), prog.PerService["auth"])
}

func TestJSONLWriterErrorAndSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "session-1")
	ctx := context.Background()

	require.NoError(t, w.WriteError(ctx, &ErrorRecord{
		Code:    "ScannerFailed",
		Message: "grep exited with code 2",
		Service: "auth",
	}))
	require.NoError(t, w.WriteSummary(ctx, &SummaryRecord{
		Services:     []string{"auth"},
		Pattern:      "timeout",
		TotalMatches: 7,
		Duration:     1500 * time.Millisecond,
		Partial:      true,
	}))

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, TypeError, records[0].Type)
	assert.Equal(t, TypeSummary, records[1].Type)

	var sum SummaryRecord
	require.NoError(t, json.Unmarshal(records[1].Data, &sum))
	assert.True(t, sum.Partial)
	assert.Equal(t, int64(7), sum.TotalMatches)
}

func TestJSONLWriterClosed(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "s")
	require.NoError(t, w.Close())

	err := w.WriteProgress(context.Background(), &ProgressRecord{})
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestJSONLWriterCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "s")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteProgress(ctx, &ProgressRecord{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestJSONLWriterConcurrent(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "s")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = w.WriteProgress(ctx, &ProgressRecord{TotalMatches: int64(n)})
		}(i)
	}
	wg.Wait()

	// Every line must be complete, parseable JSON: no interleaving.
	records := decodeLines(t, &buf)
	assert.Len(t, records, 20)
}

// shortWriter writes at most 3 bytes per call.
type shortWriter struct {
	buf bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 3 {
		p = p[:3]
	}
	return w.buf.Write(p)
}

func TestJSONLWriterHandlesShortWrites(t *testing.T) {
	sw := &shortWriter{}
	w := NewJSONLWriter(sw, "s")

	require.NoError(t, w.WriteProgress(context.Background(), &ProgressRecord{Pattern: "x"}))

	var rec Record
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(sw.buf.Bytes()), &rec))
	assert.Equal(t, TypeProgress, rec.Type)
}
