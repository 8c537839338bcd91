package routes_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medicaid-docextract/internal/api/handlers"
	"github.com/zatekoja/medicaid-docextract/internal/api/routes"
	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	apperrors "github.com/zatekoja/medicaid-docextract/pkg/errors"
)

type stubProcessor struct{}

func (stubProcessor) ProcessDocument(ctx context.Context, req entities.ExtractionRequest, sink services.ProgressSink) (*entities.DocumentResult, error) {
	if !req.HasText() {
		return nil, apperrors.NewInputError("document text is required", nil)
	}
	return &entities.DocumentResult{
		RequestID:        "req-1",
		DocumentType:     entities.DocumentTypeMedicaidClaim,
		ExtractedData:    entities.NewExtractionRecord(entities.RecordInput{}),
		ProcessingMethod: entities.ProcessingMethodFallback,
	}, nil
}

func (stubProcessor) AnalyzerStatus(ctx context.Context) (bool, string) {
	return false, "llama3.1:latest"
}

func newHandler() http.Handler {
	router := routes.NewRouter(
		handlers.NewExtractionHandler(stubProcessor{}, 1<<20),
		nil,
		[]string{"*"},
		nil,
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_ProcessDocument(t *testing.T) {
	h := newHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/documents/process", bytes.NewBufferString(`{"text":"Patient: John Smith"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processingMethod":"fallback"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/documents/process", bytes.NewBufferString(`{"text":""}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MethodAndStreams(t *testing.T) {
	h := newHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stream/extractions/req-1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AnalyzerStatus(t *testing.T) {
	w := httptest.NewRecorder()
	newHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analyzer/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reachable":false,"model":"llama3.1:latest"}`, w.Body.String())
}

func TestRouter_StreamStatus(t *testing.T) {
	router := routes.NewRouter(
		handlers.NewExtractionHandler(stubProcessor{}, 1<<20),
		handlers.NewSSEHandler(nil),
		[]string{"*"},
		nil,
	)

	w := httptest.NewRecorder()
	router.SetupRoutes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stream/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false,"clients":0,"channels":{}}`, w.Body.String())
}
