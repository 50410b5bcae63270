// Package output provides the JSONL sideband stream for search diagnostics.
//
// Progress, error, and summary records are emitted out-of-band while a
// search runs; they never appear in the search result itself. Each line is
// a self-contained JSON envelope that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: logai.<type>.v<version>
const (
	// TypeProgress identifies progress update records.
	TypeProgress = "logai.progress.v1"

	// TypeError identifies per-service error records.
	TypeError = "logai.error.v1"

	// TypeSummary identifies final search summary records.
	TypeSummary = "logai.summary.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "logai.progress.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// SessionID correlates records belonging to one engine session.
	SessionID string `json:"session_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ProgressRecord is the data payload for progress updates.
//
// Progress records are emitted while a search fans out, throttled by match
// deltas and a minimum interval so slow scans still surface liveness.
type ProgressRecord struct {
	// Pattern is the literal search pattern.
	Pattern string `json:"pattern"`

	// TotalMatches is the number of matches aggregated so far.
	TotalMatches int64 `json:"total_matches"`

	// PerService maps service name to its running match count.
	PerService map[string]int64 `json:"per_service,omitempty"`

	// FilesSearched is the number of files handed to scanners so far.
	FilesSearched int64 `json:"files_searched"`
}

// ErrorRecord is the data payload for per-service errors.
//
// Errors are emitted as records rather than failing the whole search,
// allowing partial results when some services fail.
type ErrorRecord struct {
	// Code is a machine-readable error kind.
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Service is the service whose scan produced the error.
	Service string `json:"service,omitempty"`
}

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	Services      []string `json:"services"`
	Pattern       string   `json:"pattern"`
	TotalMatches  int64    `json:"total_matches"`
	FilesSearched int64    `json:"files_searched"`

	// Duration is the wall-clock search time.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	Cached   bool   `json:"cached"`
	Partial  bool   `json:"partial"`
	Overflow bool   `json:"overflow"`
	SavedTo  string `json:"saved_to,omitempty"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
