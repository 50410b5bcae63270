package handlers

import (
	"encoding/json"
	"net/http"
)

// Summarizer exposes a point-in-time counter snapshot. The coord metrics
// sink implements it.
type Summarizer interface {
	Summary() map[string]any
}

// SummaryHandler serves GET /api/v1/metrics/summary: a JSON snapshot of
// engine counters for callers that do not scrape Prometheus.
type SummaryHandler struct {
	Metrics Summarizer
}

func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.Metrics.Summary())
}
