package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/roster/internal/importer"
)

// templateColumns are the headers of the downloadable CSV template. Each one
// auto-maps to its target field, so a filled-in template needs no manual
// mapping step.
var templateColumns = []string{
	"First Name", "Last Name", "Email", "Side",
	"Can Scull", "Can Cox", "Height (cm)", "Weight (kg)",
}

var templateSampleRow = []string{
	"Jane", "Doe", "jane.doe@example.com", "Port",
	"yes", "no", "175", "68.5",
}

// handleHealth reports liveness plus a snapshot of session and commit load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"activeSessions": s.service.ActiveSessions(),
		"importLimiter":  s.service.LimiterStatus(),
	})
}

// handleCreateImport starts a wizard session from an uploaded CSV file.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	fileName, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	state, err := s.service.CreateSession(fileName, data)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusCreated, state)
}

// handleAttachFile replaces the file of a session that went Back to the
// Upload step.
func (s *Server) handleAttachFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	fileName, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	state, err := s.service.AttachFile(sessionID, fileName, data)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// readUpload extracts the CSV payload from a multipart form. It enforces the
// configured size limit and reports problems to the client itself; callers
// only proceed when ok is true.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, err)
		} else {
			respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		}
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errors.New("no file provided"))
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, err)
		} else {
			respondError(w, r, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		}
		return "", nil, false
	}

	return header.Filename, data, true
}

// handleGetImport returns the current state of a session.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.service.Get(sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

type mappingRequest struct {
	Mapping importer.ColumnMapping `json:"mapping"`
}

// handleUpdateMapping replaces the session's column mapping.
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid mapping payload: %w", err))
		return
	}

	state, err := s.service.UpdateMapping(sessionID, req.Mapping)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handlePreview runs validation over every row and returns the summary.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := s.service.Preview(sessionID); err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	// The summary is part of the session state, so return the whole state
	// and the client has step, mapping, and summary in one payload.
	state, err := s.service.Get(sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handleBack moves the wizard one step backwards.
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.service.Back(sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handleExportInvalidRows downloads the rows that failed validation as CSV.
// The original columns are kept and an extra "Errors" column explains what
// was wrong with each row.
func (s *Server) handleExportInvalidRows(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	headers, invalid, err := s.service.InvalidRows(sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="invalid_rows.csv"`)

	cw := csv.NewWriter(w)
	cw.Write(append(append([]string{"Row"}, headers...), "Errors"))

	for _, row := range invalid {
		record := make([]string, 0, len(headers)+2)
		record = append(record, strconv.Itoa(row.Row))
		for _, h := range headers {
			record = append(record, row.Values[h])
		}
		record = append(record, formatRowErrors(row.Errors))
		cw.Write(record)
	}
	cw.Flush()
}

// formatRowErrors renders a row's validation errors as one readable cell.
func formatRowErrors(errs []importer.ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%s: %s", e.Column, e.Message)
	}
	return strings.Join(parts, "; ")
}

// handleCommit bulk-creates the session's valid rows.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	imported, err := s.service.Commit(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	state, err := s.service.Get(sessionID)
	if err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"imported": imported,
		"session":  state,
	})
}

// handleAbortImport discards a session.
func (s *Server) handleAbortImport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.service.Abort(sessionID); err != nil {
		respondError(w, r, statusForError(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDownloadTemplate returns a starter CSV with recognized headers and
// one sample row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="athletes_template.csv"`)

	cw := csv.NewWriter(w)
	cw.Write(templateColumns)
	cw.Write(templateSampleRow)
	cw.Flush()
}

// handleListAthletes lists persisted athletes with limit/offset pagination.
func (s *Server) handleListAthletes(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	athletes, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, fmt.Errorf("list athletes: %w", err))
		return
	}

	total, err := s.store.Count(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, fmt.Errorf("count athletes: %w", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"athletes": athletes,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// parseIntParam reads an integer query parameter, falling back to def when
// absent or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
