// Package respond implements the responder clients: the outbound HTTP call
// to a live inference backend, and the local simulated generator used in
// offline mode and as the silent fallback when the backend fails.
package respond

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// Request is the outbound payload for one responder call.
type Request struct {
	Prompt              string                     `json:"prompt"`
	Model               models.ModelID             `json:"model"`
	OfflineMode         bool                       `json:"offlineMode"`
	ConversationHistory []conversation.HistoryTurn `json:"conversationHistory"`
	ConversationFocus   string                     `json:"conversationFocus,omitempty"`
	InteractionMode     string                     `json:"interactionMode,omitempty"`
}

// Response is the backend's reply envelope.
type Response struct {
	Response string `json:"response"`
}

// Responder produces one reply for one model.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// HTTPResponder calls the live inference backend. Any transport error or
// non-OK status is returned to the caller; the orchestrator absorbs it into
// a canned fallback rather than surfacing it to users.
type HTTPResponder struct {
	client  *http.Client
	baseURL string
}

// NewHTTPResponder creates a responder client against baseURL.
func NewHTTPResponder(baseURL string, timeout time.Duration) *HTTPResponder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPResponder{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Respond implements the Responder interface.
func (h *HTTPResponder) Respond(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/ai-response", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(data))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}
