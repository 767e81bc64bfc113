package web

// responses.go centralizes JSON encoding and the mapping from core
// errors onto HTTP status codes. Validation problems keep their stable
// code so clients can highlight the offending field; everything
// unexpected collapses to a generic 500 with the detail only in the
// server log.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/junnakarai/bankpocket/internal/core"
	"github.com/junnakarai/bankpocket/internal/csvio"
	"github.com/junnakarai/bankpocket/internal/logging"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError maps err to a status code and writes the error body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "内部エラーが発生しました"}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		if verr == core.ErrDuplicateAccount || verr == core.ErrDuplicateTag {
			status = http.StatusConflict
		}
		body = ErrorResponse{Error: verr.Message, Code: verr.Code}
	case errors.Is(err, core.ErrAccountNotFound), errors.Is(err, core.ErrTagNotFound):
		status = http.StatusNotFound
		body = ErrorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrReorderFiltered), errors.Is(err, core.ErrInvalidMove):
		status = http.StatusConflict
		body = ErrorResponse{Error: err.Error()}
	case errors.Is(err, csvio.ErrInvalidFormat):
		status = http.StatusBadRequest
		body = ErrorResponse{Error: csvio.ErrInvalidFormat.Error()}
	}

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	)

	respondJSON(w, status, body)
}
