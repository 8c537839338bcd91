package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medicaid-docextract/internal/api/handlers"
	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	apperrors "github.com/zatekoja/medicaid-docextract/pkg/errors"
)

// MockDocumentProcessor is a mock implementation of handlers.DocumentProcessor
type MockDocumentProcessor struct {
	mock.Mock
}

func (m *MockDocumentProcessor) ProcessDocument(ctx context.Context, req entities.ExtractionRequest, sink services.ProgressSink) (*entities.DocumentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DocumentResult), args.Error(1)
}

func (m *MockDocumentProcessor) AnalyzerStatus(ctx context.Context) (bool, string) {
	args := m.Called(ctx)
	return args.Bool(0), args.String(1)
}

func sampleResult(requestID string) *entities.DocumentResult {
	record := entities.NewExtractionRecord(entities.RecordInput{
		PatientName:      "John Smith",
		Identifier:       "MD123456789",
		Diagnosis:        entities.NewDiagnosis("Essential Hypertension"),
		Confidence:       0.8,
		ProcessingSource: "Pattern Extraction",
	})
	return &entities.DocumentResult{
		RequestID:        requestID,
		DocumentType:     entities.DocumentTypeMedicaidClaim,
		ExtractedData:    record,
		Validation:       entities.ValidationResult{Status: entities.ValidationStatusValid, Issues: []string{}, Recommendations: []string{}, Confidence: 0.8},
		ProcessingTime:   1500 * time.Millisecond,
		Confidence:       0.8,
		ProcessingMethod: entities.ProcessingMethodFallback,
		FallbackReason:   "analyzer_unreachable",
	}
}

func TestExtractionHandler_ProcessDocument(t *testing.T) {
	t.Run("returns the document result", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		processor.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(r entities.ExtractionRequest) bool {
			return r.Text == "Patient: John Smith" && r.RequestID == "req-1" && r.Metadata.Name == "claim.txt"
		})).Return(sampleResult("req-1"), nil)

		body, _ := json.Marshal(map[string]string{
			"text":         "Patient: John Smith",
			"requestId":    "req-1",
			"documentName": "claim.txt",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/documents/process", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.ProcessDocument(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "req-1", got["requestId"])
		assert.Equal(t, "fallback", got["processingMethod"])
		assert.Equal(t, float64(1500), got["processingTime"])
		data := got["extractedData"].(map[string]interface{})
		assert.Equal(t, "John Smith", data["patientName"])
		assert.Equal(t, "MD123456789", data["medicaidId"])
		processor.AssertExpectations(t)
	})

	t.Run("maps input errors to 400", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		processor.On("ProcessDocument", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInputError("document text is required", nil))

		req := httptest.NewRequest(http.MethodPost, "/api/documents/process", bytes.NewBufferString(`{"text":"  "}`))
		w := httptest.NewRecorder()

		handler.ProcessDocument(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"document text is required"}`, w.Body.String())
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		req := httptest.NewRequest(http.MethodPost, "/api/documents/process", bytes.NewBufferString(`{"text":`))
		w := httptest.NewRecorder()

		handler.ProcessDocument(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		processor.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything)
	})
}

func multipartBody(t *testing.T, field, fileName string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExtractionHandler_UploadDocument(t *testing.T) {
	t.Run("passes file content to the processor", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		processor.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(r entities.ExtractionRequest) bool {
			return r.FileName == "claim.txt" &&
				string(r.Content) == "Patient: John Smith" &&
				r.RequestID == "req-up" &&
				r.Metadata.Name == "claim.txt"
		})).Return(sampleResult("req-up"), nil)

		body, contentType := multipartBody(t, "document", "claim.txt", []byte("Patient: John Smith"),
			map[string]string{"requestId": "req-up"})
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadDocument(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		processor.AssertExpectations(t)
	})

	t.Run("requires the document field", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		body, contentType := multipartBody(t, "", "", nil, map[string]string{"requestId": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadDocument(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 64)

		body, contentType := multipartBody(t, "document", "claim.txt", bytes.Repeat([]byte("x"), 4096), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadDocument(w, req)

		assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
		processor.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything)
	})

	t.Run("maps unsupported documents to 400", func(t *testing.T) {
		processor := new(MockDocumentProcessor)
		handler := handlers.NewExtractionHandler(processor, 1<<20)

		processor.On("ProcessDocument", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInputError(`unsupported document type ".docx"`, nil))

		body, contentType := multipartBody(t, "document", "claim.docx", []byte("x"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.UploadDocument(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported document type")
	})
}

func TestExtractionHandler_AnalyzerStatus(t *testing.T) {
	processor := new(MockDocumentProcessor)
	handler := handlers.NewExtractionHandler(processor, 1<<20)
	processor.On("AnalyzerStatus", mock.Anything).Return(true, "llama3.1:latest")

	w := httptest.NewRecorder()
	handler.AnalyzerStatus(w, httptest.NewRequest(http.MethodGet, "/api/analyzer/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reachable":true,"model":"llama3.1:latest"}`, w.Body.String())
}
