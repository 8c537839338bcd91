package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// uploadField is the multipart form field carrying the document
const uploadField = "document"

// DocumentProcessor runs the extraction pipeline
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req entities.ExtractionRequest, sink services.ProgressSink) (*entities.DocumentResult, error)
	AnalyzerStatus(ctx context.Context) (bool, string)
}

// ExtractionHandler handles document extraction HTTP requests
type ExtractionHandler struct {
	processor      DocumentProcessor
	uploadMaxBytes int64
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(processor DocumentProcessor, uploadMaxBytes int64) *ExtractionHandler {
	return &ExtractionHandler{
		processor:      processor,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// ProcessRequest is the JSON body of POST /api/documents/process
type ProcessRequest struct {
	Text         string `json:"text"`
	RequestID    string `json:"requestId,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
}

// ProcessDocument handles POST /api/documents/process
func (h *ExtractionHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, h.uploadMaxBytes))
	if err := dec.Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.processor.ProcessDocument(r.Context(), entities.ExtractionRequest{
		RequestID: strings.TrimSpace(body.RequestID),
		Text:      body.Text,
		Metadata: entities.DocumentMetadata{
			Name:         body.DocumentName,
			DeclaredType: body.DocumentType,
		},
	}, nil)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// UploadDocument handles POST /api/documents/upload
func (h *ExtractionHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "document exceeds upload limit")
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("failed to read upload")
		respondWithError(w, http.StatusBadRequest, "failed to read document")
		return
	}

	name := r.FormValue("documentName")
	if name == "" {
		name = header.Filename
	}

	result, err := h.processor.ProcessDocument(r.Context(), entities.ExtractionRequest{
		RequestID: strings.TrimSpace(r.FormValue("requestId")),
		FileName:  header.Filename,
		Content:   content,
		Metadata: entities.DocumentMetadata{
			Name:         name,
			DeclaredType: r.FormValue("documentType"),
		},
	}, nil)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// AnalyzerStatus handles GET /api/analyzer/status
func (h *ExtractionHandler) AnalyzerStatus(w http.ResponseWriter, r *http.Request) {
	reachable, model := h.processor.AnalyzerStatus(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reachable": reachable,
		"model":     model,
	})
}
