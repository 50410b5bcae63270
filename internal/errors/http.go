// Package errors defines the HTTP error envelope and the mapping from
// domain errors to status codes.
//
// Every error response is {"error":{"code","message",...}} so clients can
// switch on a stable machine-readable code.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/logai/logai/pkg/search"
	"github.com/logai/logai/pkg/spill"
)

// HTTPError is the body of the error envelope.
type HTTPError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// HTTPErrorResponse is the envelope for all error responses.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// WriteError emits an error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPError{Code: code, Message: message, Details: details},
	})
}

// RespondWithError maps a domain error onto the envelope. Unrecognized
// errors become 500 INTERNAL_ERROR.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := classify(err)
	WriteError(w, status, code, err.Error(), details)
}

func classify(err error) (status int, code string, details map[string]any) {
	var searchErr *search.Error
	if stderrors.As(err, &searchErr) {
		switch searchErr.Kind {
		case search.KindServiceNotFound:
			details = map[string]any{}
			if len(searchErr.Suggestions) > 0 {
				details["suggestions"] = searchErr.Suggestions
			}
			return http.StatusNotFound, "SERVICE_NOT_FOUND", details
		case search.KindSpillFailed:
			return http.StatusInternalServerError, "SPILL_FAILED", nil
		default:
			return http.StatusInternalServerError, "INTERNAL_ERROR", nil
		}
	}

	var readErr *spill.ReadError
	if stderrors.As(err, &readErr) {
		details = map[string]any{"path": readErr.Path}
		switch readErr.Kind {
		case spill.ErrInvalidPath, spill.ErrPrefixMismatch:
			return http.StatusBadRequest, "INVALID_SPILL_PATH", details
		case spill.ErrNotFound:
			return http.StatusNotFound, "SPILL_NOT_FOUND", details
		case spill.ErrFileTooLarge:
			return http.StatusRequestEntityTooLarge, "SPILL_TOO_LARGE", details
		default:
			return http.StatusInternalServerError, "SPILL_DECODE_ERROR", details
		}
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", nil
}
