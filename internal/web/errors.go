package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crewdeck/roster/internal/importer"
	"github.com/crewdeck/roster/internal/logging"
)

// errorResponse is the JSON envelope for all error replies.
type errorResponse struct {
	Error importer.UserMessage `json:"error"`
}

// respondJSON encodes v and writes it with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent, nothing left to do but log
		slog.Error("json encode failed", "error", err)
	}
}

// respondError maps err to a user-facing message and writes it as JSON.
// The raw error is logged server-side; the client only sees the mapped
// message and support code.
func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := logging.FromContext(r.Context())
	msg := importer.MapError(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", msg.Code, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "code", msg.Code, "error", err)
	}

	respondJSON(w, status, errorResponse{Error: msg})
}

// statusForError picks the HTTP status for an importer error.
func statusForError(err error) int {
	var (
		mapErr   *importer.MappingError
		parseErr *csv.ParseError
	)

	switch {
	case errors.Is(err, importer.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrInvalidStep),
		errors.Is(err, importer.ErrNothingToImport):
		return http.StatusConflict
	case errors.Is(err, importer.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, importer.ErrUnknownColumn),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrNoDataRows),
		errors.As(err, &mapErr),
		errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
