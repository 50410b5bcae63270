package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/logai/logai/pkg/scanner"
	"github.com/logai/logai/pkg/spill"
)

func testSpillHandler(t *testing.T) (*SpillHandler, *spill.Store) {
	t.Helper()
	store, err := spill.NewStore(t.TempDir(), "test", zap.NewNop())
	require.NoError(t, err)
	return &SpillHandler{Store: store, MaxBytes: 1 << 20}, store
}

func getSpill(h *SpillHandler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	target := "/api/v1/spill"
	if path != "" {
		target += "?path=" + url.QueryEscape(path)
	}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSpillHandlerOK(t *testing.T) {
	h, store := testSpillHandler(t)
	path, err := store.Write([]scanner.Match{
		{Service: "auth", FilePath: "/logs/a.log", LineNumber: 3, Content: scanner.StringContent("hit")},
	}, "auth", false)
	require.NoError(t, err)

	rec := getSpill(h, path)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SpillResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, path, resp.Path)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, 1, resp.TotalMatches)
	assert.Equal(t, 3, resp.Matches[0].LineNumber)
	assert.Greater(t, resp.TotalSize, int64(0))
}

func TestSpillHandlerMissingPath(t *testing.T) {
	h, _ := testSpillHandler(t)
	rec := getSpill(h, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
}

func TestSpillHandlerNotFound(t *testing.T) {
	h, store := testSpillHandler(t)
	missing := filepath.Join(store.Root(), "test", "logai-search-20260101-000000-gone-00000000.json")

	rec := getSpill(h, missing)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SPILL_NOT_FOUND", errorCode(t, rec))
}

func TestSpillHandlerOutsideRoot(t *testing.T) {
	h, _ := testSpillHandler(t)

	rec := getSpill(h, "/etc/passwd")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SPILL_PATH", errorCode(t, rec))
}
