package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/batch"
	"DocumentExtractionSystem/pkg/encoder"
	"DocumentExtractionSystem/pkg/export"
	"DocumentExtractionSystem/pkg/models"
)

// Response formats for /extract
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatLines = "lines"
)

// Handler serves the extraction endpoints
type Handler struct {
	orchestrator   *batch.Orchestrator
	maxUploadBytes int64
	logger         *zap.Logger
}

// ExtractResponse is the JSON body returned by /extract
type ExtractResponse struct {
	Status  string                    `json:"status"`
	Kind    models.DocumentKind       `json:"kind"`
	Count   int                       `json:"count"`
	Failed  int                       `json:"failed"`
	Records []models.NormalizedRecord `json:"records"`
}

// SetupRoutes configures the HTTP routes for the application
func SetupRoutes(mux *http.ServeMux, orchestrator *batch.Orchestrator, maxUploadBytes int64, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		orchestrator:   orchestrator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("OPTIONS /extract", h.handlePreflight)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

// handleExtract runs one batch over the uploaded files and returns every record
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Error parsing upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Determine document kind from request parameter, default to invoice if not specified
	kind := models.InvoiceKind
	if v := r.FormValue("kind"); v != "" {
		parsed, err := models.ParseDocumentKind(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = parsed
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatCSV && format != FormatLines {
		http.Error(w, "Unsupported format: "+format, http.StatusBadRequest)
		return
	}

	// Accept both "files" (repeated) and the single "file" field
	var files []models.SourceFile
	for _, field := range []string{"files", "file"} {
		for _, header := range r.MultipartForm.File[field] {
			files = append(files, encoder.UploadedFile{Header: header})
		}
	}

	records, err := h.orchestrator.Run(r.Context(), files, kind)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, batch.ErrEmptyQueue) || errors.Is(err, models.ErrUnknownKind) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Error processing batch: "+err.Error(), status)
		return
	}

	switch format {
	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := export.WriteCSV(w, kind, records); err != nil {
			h.logger.Error("writing csv response", zap.Error(err))
		}
	case FormatLines:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := export.WriteLines(w, records); err != nil {
			h.logger.Error("writing lines response", zap.Error(err))
		}
	default:
		flat := make([]models.NormalizedRecord, len(records))
		failed := 0
		for i, rec := range records {
			flat[i] = export.Flatten(rec)
			if rec.Failed() {
				failed++
			}
		}
		err := writeJSON(w, http.StatusOK, ExtractResponse{
			Status:  "success",
			Kind:    kind,
			Count:   len(records),
			Failed:  failed,
			Records: flat,
		})
		if err != nil {
			h.logger.Error("writing json response", zap.Error(err))
		}
	}
}

// writeJSON encodes body before touching the response, so an encoding
// failure becomes a 500 instead of an empty 200
func writeJSON(w http.ResponseWriter, status int, body any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
