// Package httpapi exposes the chat endpoint. Requests are authenticated
// with a bearer token, validated, then answered as a server-sent event
// stream.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contact4labs-eng/costwise/internal/agent"
	"github.com/contact4labs-eng/costwise/internal/auth"
	"github.com/contact4labs-eng/costwise/internal/observability"
)

// ChatRequest is the POST /v1/chat body. TenantID is optional; when set it
// must match the token's tenant claim.
type ChatRequest struct {
	TenantID string              `json:"tenant_id,omitempty"`
	Messages []agent.ChatMessage `json:"messages"`
	Language string              `json:"language,omitempty"`
}

// ChatHandler serves POST /v1/chat.
type ChatHandler struct {
	loop     *agent.Loop
	verifier auth.Verifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewChatHandler wires the handler. Metrics may be nil.
func NewChatHandler(loop *agent.Loop, verifier auth.Verifier, metrics *observability.Metrics, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{loop: loop, verifier: verifier, metrics: metrics, logger: logger}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	tenantID, err := h.verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.TenantID != "" && body.TenantID != tenantID {
		writeError(w, http.StatusUnauthorized, "tenant mismatch")
		return
	}

	events, err := h.loop.Run(r.Context(), agent.Request{
		TenantID: tenantID,
		Messages: body.Messages,
		Language: body.Language,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenantID))

	// A model failure before anything was emitted is still a plain HTTP
	// failure. Once the stream is open, failures become error events.
	first, open := <-events
	if !open {
		writeError(w, http.StatusBadGateway, "no response produced")
		return
	}
	if first.Type == agent.EventError {
		logger.Warn("chat request failed before streaming", zap.Error(first.Err))
		writeError(w, http.StatusBadGateway, first.Err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.metrics.IncActiveStreams()
	defer h.metrics.DecActiveStreams()

	h.writeEvent(w, flusher, logger, first)
	for ev := range events {
		h.writeEvent(w, flusher, logger, ev)
	}
}

func (h *ChatHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, logger *zap.Logger, ev agent.Event) {
	switch ev.Type {
	case agent.EventToolCalls:
		writeSSE(w, flusher, "tool_calls", map[string]interface{}{
			"tools": ev.Tools,
		})
	case agent.EventDelta:
		writeSSE(w, flusher, "content_block_delta", map[string]interface{}{
			"delta": map[string]string{"type": "text_delta", "text": ev.Delta},
		})
	case agent.EventDone:
		writeSSE(w, flusher, "message_stop", map[string]interface{}{
			"status": ev.Status,
		})
	case agent.EventError:
		logger.Warn("chat request failed mid-stream", zap.Error(ev.Err))
		writeSSE(w, flusher, "error", map[string]interface{}{
			"error": ev.Err.Error(),
		})
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
