/*
handlers.go - HTTP API handlers

PURPOSE:
  Exposes the run service over REST. Handles HTTP request/response, JSON
  and multipart parsing, and delegates everything else to the service.

ENDPOINTS:
  POST /api/runs                 Upload workbooks, execute a run
  GET  /api/runs                 List run headers
  GET  /api/runs/{id}            Run detail
  GET  /api/runs/{id}/positions  Computed result lines
  GET  /api/runs/{id}/daily      Folded daily balances
  GET  /api/runs/{id}/report     Three-sheet report workbook
  GET  /api/settings             Current settings document
  PUT  /api/settings             Replace settings document

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: bad multipart body, bad settings document
  - 404: unknown run
  - 422: schema errors and missing import files in uploaded workbooks
  - 500: internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearport/surety-engine/config"
	"github.com/clearport/surety-engine/customs"
	"github.com/clearport/surety-engine/service"
)

// Handler holds the API dependencies.
type Handler struct {
	Service        *service.Service
	MaxUploadBytes int64
}

func NewHandler(svc *service.Service, maxUploadBytes int64) *Handler {
	return &Handler{Service: svc, MaxUploadBytes: maxUploadBytes}
}

// uploadFields maps multipart form field names onto the run input.
var uploadFields = []string{"master", "importDuty", "warehouse", "transit", "transport"}

// CreateRun accepts a multipart upload of the input workbooks and executes
// a run synchronously.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart body", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := make(map[string]multipart.File, len(uploadFields))
	for _, field := range uploadFields {
		f, _, err := r.FormFile(field)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %q upload", field), err)
			return
		}
		defer f.Close()
		files[field] = f
	}
	if files["master"] == nil {
		writeError(w, http.StatusBadRequest, "Master file upload is required", nil)
		return
	}

	in := service.RunInput{
		Master:     files["master"],
		ImportDuty: optionalReader(files["importDuty"]),
		Warehouse:  optionalReader(files["warehouse"]),
		Transit:    optionalReader(files["transit"]),
		Transport:  optionalReader(files["transport"]),
	}

	run, err := h.Service.Execute(r.Context(), in)
	if err != nil {
		writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// optionalReader keeps a typed nil from masquerading as a present reader.
func optionalReader(f multipart.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}

// ListRuns returns run headers, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	headers, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	if headers == nil {
		headers = []service.RunHeader{}
	}
	writeJSON(w, http.StatusOK, headers)
}

// GetRun returns one run's detail view.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// GetPositions returns the computed result lines of a run.
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPositionDTOs(run.Positions))
}

// GetDailyBalances returns the folded daily balances of a run.
func (h *Handler) GetDailyBalances(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDayBalanceDTOs(run.Days))
}

// GetReport streams the rendered three-sheet workbook.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.Service.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-report-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetSettings returns the current settings document.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateSettings validates and replaces the settings document. Existing
// runs keep the snapshot they were executed with.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var doc config.SettingsDocument
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings document", err)
		return
	}
	if err := h.Service.UpdateSettings(doc); err != nil {
		writeError(w, http.StatusBadRequest, "Settings rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*service.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return nil, false
	}
	return run, true
}

// writeRunError maps engine failures onto HTTP statuses: input problems
// the uploader can fix are 4xx, everything else is 500.
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customs.ErrSchema):
		writeError(w, http.StatusUnprocessableEntity, "Input file schema error", err)
	case errors.Is(err, customs.ErrMissingImportFile):
		writeError(w, http.StatusUnprocessableEntity, "Missing import file for declaration type", err)
	case errors.Is(err, customs.ErrEmptyRun):
		writeError(w, http.StatusUnprocessableEntity, "No master records in configured period", err)
	default:
		writeError(w, http.StatusInternalServerError, "Run failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
