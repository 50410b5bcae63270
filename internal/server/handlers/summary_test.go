package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer map[string]any

func (s stubSummarizer) Summary() map[string]any { return s }

func TestSummaryHandler(t *testing.T) {
	h := &SummaryHandler{Metrics: stubSummarizer{
		"searches_total": 7,
		"cache_hits":     3,
	}}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/summary", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(7), got["searches_total"])
	assert.Equal(t, float64(3), got["cache_hits"])
}
