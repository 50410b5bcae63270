package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/logai/logai/internal/errors"
	"github.com/logai/logai/pkg/discover"
	"github.com/logai/logai/pkg/output"
	"github.com/logai/logai/pkg/search"
)

// SearchRequest is the POST /api/v1/search body. The window is either an
// explicit start/end pair or a relative "since" duration ending now.
type SearchRequest struct {
	Services []string `json:"services"`
	Locale   string   `json:"locale,omitempty"`
	Pattern  string   `json:"pattern"`

	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Since string     `json:"since,omitempty"`
}

// SearchHandler runs searches through the shared executor.
type SearchHandler struct {
	Exec *search.Executor
	Log  *zap.Logger
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body: "+err.Error(), nil)
		return
	}
	if req.Pattern == "" {
		apperrors.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "pattern is required", nil)
		return
	}

	window, err := h.window(req)
	if err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, "INVALID_WINDOW", err.Error(), nil)
		return
	}

	rs, err := h.Exec.Search(r.Context(), search.Request{
		Services: req.Services,
		Locale:   req.Locale,
		Pattern:  req.Pattern,
		Window:   window,
	}, output.Nop())
	if err != nil {
		h.Log.Warn("search failed", zap.Error(err))
		apperrors.RespondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rs)
}

func (h *SearchHandler) window(req SearchRequest) (discover.Window, error) {
	if req.Since != "" {
		d, err := time.ParseDuration(req.Since)
		if err != nil {
			return discover.Window{}, err
		}
		now := time.Now().UTC()
		return discover.NewWindow(now.Add(-d), now)
	}

	var start, end time.Time
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	} else {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		// Default lookback keeps a windowless request cheap.
		start = end.Add(-time.Hour)
	}
	return discover.NewWindow(start, end)
}
