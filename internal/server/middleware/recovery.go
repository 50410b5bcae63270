package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	apperrors "github.com/logai/logai/internal/errors"
)

// ErrorResponse aliases the shared envelope so middleware tests can decode
// responses without importing internal/errors.
type ErrorResponse = apperrors.HTTPErrorResponse

// Recovery converts handler panics into 500 responses with the standard
// error envelope. The stack is logged, never sent to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			zap.L().Error("handler panic",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.ByteString("stack", debug.Stack()))

			writeErrorResponse(w, ErrorResponse{
				Error: apperrors.HTTPError{
					Code:      "INTERNAL_ERROR",
					Message:   fmt.Sprintf("panic: %v", rec),
					RequestID: GetRequestID(r.Context()),
				},
			}, http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
