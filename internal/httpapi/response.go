// File: internal/httpapi/response.go
package httpapi

import (
	"blobnav/pkg/storage"
	"encoding/json"
	"errors"
	"net/http"
)

// Non-standard status used by nginx for a request the client abandoned
const statusClientClosedRequest = 499

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Final NDJSON record of a streamed listing. Done is false when the listing failed after
// the status line was sent; Count is the number of handle records before it.
type streamTrailer struct {
	Done    bool   `json:"done"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const streamFlushEvery = 100

var errorStatuses = []struct {
	kind   error
	status int
	code   string
}{
	{storage.ErrNotFound, http.StatusNotFound, "NotFound"},
	{storage.ErrAlreadyExists, http.StatusConflict, "AlreadyExists"},
	{storage.ErrInvalidName, http.StatusBadRequest, "InvalidName"},
	{storage.ErrBackendUnavailable, http.StatusServiceUnavailable, "BackendUnavailable"},
	{storage.ErrQuotaExceeded, http.StatusInsufficientStorage, "QuotaExceeded"},
	{storage.ErrCancelled, statusClientClosedRequest, "Cancelled"},
	{storage.ErrIO, http.StatusInternalServerError, "IOError"},
}

// Maps a failure kind to its HTTP status and error code
func StatusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.kind) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "InternalError"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
