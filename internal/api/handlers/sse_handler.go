package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// DefaultHeartbeatInterval is the SSE keep-alive period
const DefaultHeartbeatInterval = 30 * time.Second

// SSEHandler streams extraction progress events as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.ProgressEventBus
	heartbeat time.Duration
	clients   map[string]int // channel -> connected clients
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.ProgressEventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: DefaultHeartbeatInterval,
		clients:   make(map[string]int),
	}
}

// StreamExtraction handles SSE connections for a single request's progress.
// The stream ends after the complete event.
// GET /api/stream/extractions/{id}
func (h *SSEHandler) StreamExtraction(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	h.stream(w, r, providers.GetExtractionChannel(requestID), map[string]interface{}{
		"request_id": requestID,
	}, true)
}

// StreamAllExtractions handles SSE connections for every request's progress
// GET /api/stream/extractions
func (h *SSEHandler) StreamAllExtractions(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelExtractions, map[string]interface{}{}, false)
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}, stopOnComplete bool) {
	logger := observability.LoggerFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	if h.eventBus == nil {
		respondWithError(w, http.StatusServiceUnavailable, "progress streaming is disabled")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	eventChan, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to channel")
		respondWithError(w, http.StatusServiceUnavailable, "failed to subscribe to progress events")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.registerClient(channel)
	defer h.unregisterClient(channel)

	hello["timestamp"] = time.Now()
	h.sendEvent(w, "connected", hello)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("channel", channel).Msg("client disconnected from extraction stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				logger.Debug().Str("channel", channel).Msg("progress subscription closed")
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, "progress", event)
			flusher.Flush()
			if stopOnComplete && event.Step == entities.ProgressStepComplete {
				return
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
}

func (h *SSEHandler) unregisterClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] <= 1 {
		delete(h.clients, channel)
		return
	}
	h.clients[channel]--
}

// sendEvent writes one SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// StreamStatus reports how many SSE clients are connected, per channel
// GET /api/stream/status
func (h *SSEHandler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	channels := make(map[string]int, len(h.clients))
	total := 0
	for channel, n := range h.clients {
		channels[channel] = n
		total += n
	}
	h.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  h.eventBus != nil,
		"clients":  total,
		"channels": channels,
	})
}

// ClientCount returns the number of connected clients
func (h *SSEHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
