package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/logai/logai/internal/errors"
	"github.com/logai/logai/pkg/scanner"
	"github.com/logai/logai/pkg/spill"
)

// SpillResponse is the GET /api/v1/spill body.
type SpillResponse struct {
	Path         string          `json:"path"`
	Matches      []scanner.Match `json:"matches"`
	TotalMatches int             `json:"total_matches"`
	TotalSize    int64           `json:"total_size"`
}

// SpillHandler serves spill files back, subject to the store's path and
// size validation.
type SpillHandler struct {
	Store    *spill.Store
	MaxBytes int64
}

func (h *SpillHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		apperrors.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "path query parameter is required", nil)
		return
	}

	res, err := h.Store.Read(path, h.MaxBytes)
	if err != nil {
		apperrors.RespondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(SpillResponse{
		Path:         path,
		Matches:      res.Matches,
		TotalMatches: len(res.Matches),
		TotalSize:    res.TotalSize,
	})
}
