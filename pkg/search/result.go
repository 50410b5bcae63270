package search

import (
	"encoding/json"
	"fmt"

	"github.com/logai/logai/pkg/discover"
	"github.com/logai/logai/pkg/scanner"
)

// Metadata describes a completed search alongside its preview.
type Metadata struct {
	// Services are the resolved service names, in resolution order.
	Services []string `json:"services"`

	// Pattern is the literal pattern that was searched.
	Pattern string `json:"pattern"`

	// Window is the time interval the search covered.
	Window discover.Window `json:"window"`

	TotalMatches  int64 `json:"total_matches"`
	FilesSearched int64 `json:"files_searched"`

	// DurationSeconds is the wall-clock time of the original execution.
	// Cached results keep the duration of the run that produced them.
	DurationSeconds float64 `json:"duration_seconds"`

	// Cached is true when the result was served from the shared cache.
	Cached bool `json:"cached"`

	// Partial is true when at least one per-service scan failed or the
	// deadline fired before all services finished.
	Partial bool `json:"partial"`

	// Overflow is true when the full match set exceeds the preview limit.
	// The spill file always holds the complete set.
	Overflow bool `json:"overflow"`

	// SavedTo is the absolute path of the spill file.
	SavedTo string `json:"saved_to"`

	// Error is a one-line kind+reason summary, set whenever Partial is.
	Error string `json:"error,omitempty"`
}

// ResultSet is the executor's answer: a bounded preview plus metadata. The
// spill file named in metadata is the authoritative full result.
type ResultSet struct {
	Matches  []scanner.Match `json:"matches"`
	Metadata Metadata        `json:"metadata"`
}

// encodeResult serializes a result for the shared cache. Matches are
// already in stable (service, file, line) order so equal searches produce
// byte-equal cache values.
func encodeResult(rs *ResultSet) ([]byte, error) {
	data, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

// decodeResult restores a cached result.
func decodeResult(data []byte) (*ResultSet, error) {
	var rs ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &rs, nil
}
