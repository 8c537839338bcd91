package routes

import (
	"net/http"

	"github.com/zatekoja/medicaid-docextract/internal/api/handlers"
	"github.com/zatekoja/medicaid-docextract/internal/api/middleware"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	extractionHandler *handlers.ExtractionHandler
	sseHandler        *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	extractionHandler *handlers.ExtractionHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		extractionHandler: extractionHandler,
		sseHandler:        sseHandler,
		allowedOrigins:    allowedOrigins,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Extraction endpoints
	r.mux.HandleFunc("POST /api/documents/process", r.extractionHandler.ProcessDocument)
	r.mux.HandleFunc("POST /api/documents/upload", r.extractionHandler.UploadDocument)
	r.mux.HandleFunc("GET /api/analyzer/status", r.extractionHandler.AnalyzerStatus)

	// Progress streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/extractions", r.sseHandler.StreamAllExtractions)
		r.mux.HandleFunc("GET /api/stream/extractions/{id}", r.sseHandler.StreamExtraction)
		r.mux.HandleFunc("GET /api/stream/status", r.sseHandler.StreamStatus)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RecoveryMiddleware(handler)

	// CORS wraps everything so headers are set even on errors
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
