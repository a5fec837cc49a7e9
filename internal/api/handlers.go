package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/placeholder"
	"github.com/lingtools/xliffd/core/qa"
	"github.com/lingtools/xliffd/core/sdlxliff"
	"github.com/lingtools/xliffd/internal/history"
	"github.com/lingtools/xliffd/internal/server"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// DocumentInfo describes an open document session.
type DocumentInfo struct {
	Path           string `json:"path"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	Segments       int    `json:"segments"`
	PendingEdits   int    `json:"pending_edits"`
	Fingerprint    string `json:"fingerprint"`
}

// EditResult pairs the updated segment view with its validation result.
type EditResult struct {
	Segment    sdlxliff.SegmentView `json:"segment"`
	Validation placeholder.Result   `json:"validation"`
}

// SaveResult reports a completed save.
type SaveResult struct {
	Path           string `json:"path"`
	BytesWritten   int64  `json:"bytes_written"`
	AppliedInPlace bool   `json:"applied_in_place"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	OpenDocuments int    `json:"open_documents"`
	Journal       string `json:"journal"`
}

var startTime = time.Now()

// Request bodies.

type pathRequest struct {
	Path string `json:"path"`
}

type editRequest struct {
	Path      string `json:"path"`
	NewTarget string `json:"new_target"`
	StripTags bool   `json:"strip_tags,omitempty"`
}

type validateRequest struct {
	Path      string `json:"path"`
	NewTarget string `json:"new_target"`
}

type statusRequest struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

type saveRequest struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
	Backup     bool   `json:"backup,omitempty"`
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "xliffd API",
		"version": "0.3.0",
		"endpoints": []string{
			"GET /health",
			"GET /documents",
			"POST /documents/close",
			"GET /segments",
			"GET /segments/:id",
			"PUT /segments/:id",
			"POST /segments/:id/validate",
			"POST /segments/:id/status",
			"POST /save",
			"GET /statistics",
			"GET /qa",
			"GET /history",
			"WS /ws",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	journal := "disabled"
	if Journal != nil {
		journal = history.DriverType()
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:        "healthy",
		Version:       "0.3.0",
		Uptime:        time.Since(startTime).String(),
		OpenDocuments: len(Sessions.Paths()),
		Journal:       journal,
	})
}

func handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	infos := make([]DocumentInfo, 0)
	for _, path := range Sessions.Paths() {
		doc, err := Sessions.Get(path)
		if err != nil {
			continue
		}
		infos = append(infos, documentInfo(doc))
	}

	response := APIResponse{
		Success: true,
		Data:    infos,
		Meta: &APIMeta{
			Total:     len(infos),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleDocumentClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req pathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fullPath, ok := resolveRequestPath(w, req.Path)
	if !ok {
		return
	}

	closed := Sessions.Close(fullPath)
	respond(w, http.StatusOK, map[string]interface{}{
		"path":   req.Path,
		"closed": closed,
	})
}

func handleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	doc, ok := openFromQuery(w, r)
	if !ok {
		return
	}

	offset := intQuery(r, "offset", 0)
	limit := intQuery(r, "limit", sdlxliff.MaxPageSize)
	includeTags := r.URL.Query().Get("include_tags") == "true"

	page := doc.List(offset, limit, includeTags)

	response := APIResponse{
		Success: true,
		Data:    page,
		Meta: &APIMeta{
			Total:     page.Total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleSegmentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/segments/")
	if rest == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Segment ID is required")
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if err := ValidateID(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("Invalid segment ID: %v", err))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		getSegmentHandler(w, r, id)
	case action == "" && r.Method == http.MethodPut:
		updateSegmentHandler(w, r, id)
	case action == "validate" && r.Method == http.MethodPost:
		validateSegmentHandler(w, r, id)
	case action == "status" && r.Method == http.MethodPost:
		setStatusHandler(w, r, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Supported: GET/PUT /segments/:id, POST /segments/:id/validate, POST /segments/:id/status")
	}
}

func getSegmentHandler(w http.ResponseWriter, r *http.Request, id string) {
	doc, ok := openFromQuery(w, r)
	if !ok {
		return
	}

	view, err := doc.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func validateSegmentHandler(w http.ResponseWriter, r *http.Request, id string) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, ok := openDocument(w, req.Path)
	if !ok {
		return
	}

	result, err := doc.Validate(id, req.NewTarget)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func updateSegmentHandler(w http.ResponseWriter, r *http.Request, id string) {
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, ok := openDocument(w, req.Path)
	if !ok {
		return
	}

	// Snapshot the old target for the journal before the overlay changes.
	var oldTarget string
	if before, err := doc.Get(id); err == nil {
		oldTarget = before.Target
	}

	view, result, err := doc.ProposeEdit(id, req.NewTarget, sdlxliff.EditOptions{StripTags: req.StripTags})
	if err != nil {
		var ve *errors.ValidationError
		if errors.As(err, &ve) {
			respondErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", ve.Error(), result)
			return
		}
		respondDomainError(w, err)
		return
	}

	if Journal != nil {
		if _, jerr := Journal.Record(r.Context(), history.Entry{
			DocumentPath: doc.Path(),
			SegmentID:    id,
			OldTarget:    oldTarget,
			NewTarget:    view.Target,
			Status:       view.Status,
			Warnings:     len(result.Warnings),
		}); jerr != nil {
			// Journal failures never fail the edit.
			respondEditSuccess(w, view, result)
			return
		}
	}

	BroadcastComplete("edit", "Segment updated", map[string]interface{}{
		"path":       req.Path,
		"segment_id": id,
		"status":     view.Status,
		"warnings":   len(result.Warnings),
	})
	respondEditSuccess(w, view, result)
}

func respondEditSuccess(w http.ResponseWriter, view sdlxliff.SegmentView, result placeholder.Result) {
	respond(w, http.StatusOK, EditResult{Segment: view, Validation: result})
}

func setStatusHandler(w http.ResponseWriter, r *http.Request, id string) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, ok := openDocument(w, req.Path)
	if !ok {
		return
	}

	status, err := sdlxliff.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	view, err := doc.SetStatus(id, status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req saveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, ok := openDocument(w, req.Path)
	if !ok {
		return
	}

	outputPath := ""
	inPlace := true
	if req.OutputPath != "" {
		full, ok := resolveRequestPath(w, req.OutputPath)
		if !ok {
			return
		}
		outputPath = full
		inPlace = false
	}

	written, err := doc.Save(outputPath, sdlxliff.SaveOptions{Backup: req.Backup})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	savedPath := req.Path
	if req.OutputPath != "" {
		savedPath = req.OutputPath
	}
	BroadcastComplete("save", "Document saved", map[string]interface{}{
		"path":  savedPath,
		"bytes": written,
	})
	respond(w, http.StatusOK, SaveResult{
		Path:           savedPath,
		BytesWritten:   written,
		AppliedInPlace: inPlace,
	})
}

func handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	doc, ok := openFromQuery(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, doc.Stats())
}

func handleQA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	doc, ok := openFromQuery(w, r)
	if !ok {
		return
	}

	var checks []string
	if raw := r.URL.Query().Get("checks"); raw != "" {
		checks = strings.Split(raw, ",")
	}

	// List pages are capped, so collect the whole document page by page.
	segments := make([]sdlxliff.SegmentView, 0, doc.Len())
	for offset := 0; ; {
		page := doc.List(offset, sdlxliff.MaxPageSize, false)
		segments = append(segments, page.Segments...)
		if !page.HasMore {
			break
		}
		offset += page.Count
	}

	report := qa.Run(segments, qa.Options{
		Checks:         checks,
		SourceLanguage: doc.SourceLanguage(),
		TargetLanguage: doc.TargetLanguage(),
	})
	respond(w, http.StatusOK, report)
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	if Journal == nil {
		respondError(w, http.StatusNotFound, "HISTORY_DISABLED", "Edit journal is not enabled")
		return
	}

	doc, ok := openFromQuery(w, r)
	if !ok {
		return
	}

	var entries []history.Entry
	var err error
	if segmentID := r.URL.Query().Get("segment_id"); segmentID != "" {
		entries, err = Journal.BySegment(r.Context(), doc.Path(), segmentID)
	} else {
		entries, err = Journal.ByDocument(r.Context(), doc.Path(), intQuery(r, "limit", 100))
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	response := APIResponse{
		Success: true,
		Data:    entries,
		Meta: &APIMeta{
			Total:     len(entries),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Helper functions

func documentInfo(doc *sdlxliff.Document) DocumentInfo {
	return DocumentInfo{
		Path:           doc.Path(),
		SourceLanguage: doc.SourceLanguage(),
		TargetLanguage: doc.TargetLanguage(),
		Segments:       doc.Len(),
		PendingEdits:   len(doc.PendingEdits()),
		Fingerprint:    doc.Fingerprint(),
	}
}

// resolveRequestPath validates a request-supplied path against the
// documents directory and returns the full filesystem path.
func resolveRequestPath(w http.ResponseWriter, path string) (string, bool) {
	if path == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PATH", "Document path is required")
		return "", false
	}
	safePath, err := ValidatePath(ServerConfig.DocumentsDir, path)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PATH", fmt.Sprintf("Invalid document path: %v", err))
		return "", false
	}
	return filepath.Join(ServerConfig.DocumentsDir, safePath), true
}

// openDocument resolves path and opens (or reuses) the session.
func openDocument(w http.ResponseWriter, path string) (*sdlxliff.Document, bool) {
	fullPath, ok := resolveRequestPath(w, path)
	if !ok {
		return nil, false
	}
	doc, err := Sessions.Open(fullPath)
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	return doc, true
}

func openFromQuery(w http.ResponseWriter, r *http.Request) (*sdlxliff.Document, bool) {
	return openDocument(w, r.URL.Query().Get("path"))
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// decodeJSON enforces a JSON content type and decodes the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!server.ValidateContentType(ct, []string{"application/json"}) {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		parseErr := errors.NewParse("JSON", "request body", err.Error())
		respondError(w, http.StatusBadRequest, "INVALID_JSON", parseErr.Error())
		return false
	}
	return true
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	var notFound *errors.NotFoundError
	var validationErr *errors.ValidationError
	var parseErr *errors.ParseError
	var unsupported *errors.UnsupportedError
	var ioErr *errors.IOError

	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusUnprocessableEntity, "PARSE_ERROR", err.Error())
	case errors.As(err, &unsupported):
		respondError(w, http.StatusBadRequest, "UNSUPPORTED", err.Error())
	case errors.Is(err, errors.ErrDocumentTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.As(err, &ioErr):
		respondError(w, http.StatusInternalServerError, "IO_ERROR", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
