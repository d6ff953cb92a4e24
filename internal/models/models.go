package models

import (
	"fmt"
	"time"
)

// ModelID identifies a responder model.
type ModelID string

const (
	ModelGrok    ModelID = "grok"
	ModelGemini  ModelID = "gemini"
	ModelChatGPT ModelID = "chatgpt"

	// ModelSystem is the synthetic aggregator used for announcements and
	// suggestion banners. It never produces AI replies of its own.
	ModelSystem ModelID = "system"

	// TargetAll fans a prompt out to every conversational model.
	TargetAll ModelID = "all"
)

// Model describes a responder's display metadata and reply pacing.
type Model struct {
	ID   ModelID `json:"id"`
	Name string  `json:"name"`
	// Tagline is shown next to the model name in clients.
	Tagline string `json:"tagline"`
	// Specialty is the broad topic area the model is advertised for.
	Specialty string `json:"specialty"`
	// ReplyDelay is the fixed artificial latency used in simulated mode.
	// Actual completion order can still vary when a live backend is used.
	ReplyDelay time.Duration `json:"reply_delay"`
}

// ErrModelNotFound is returned when a model ID has no registry entry.
var ErrModelNotFound = fmt.Errorf("model not found")

var registry = map[ModelID]Model{
	ModelGrok: {
		ID:         ModelGrok,
		Name:       "Grok",
		Tagline:    "Technical deep dives",
		Specialty:  "technical",
		ReplyDelay: 1200 * time.Millisecond,
	},
	ModelGemini: {
		ID:         ModelGemini,
		Name:       "Gemini",
		Tagline:    "Creative synthesis",
		Specialty:  "creative",
		ReplyDelay: 2400 * time.Millisecond,
	},
	ModelChatGPT: {
		ID:         ModelChatGPT,
		Name:       "ChatGPT",
		Tagline:    "Balanced answers",
		Specialty:  "factual",
		ReplyDelay: 1800 * time.Millisecond,
	},
	ModelSystem: {
		ID:        ModelSystem,
		Name:      "System",
		Tagline:   "MindMash",
		Specialty: "general",
	},
}

// responderOrder is the canonical ordering used for fan-out and comparison
// mode. Keep stable: clients rely on it for deterministic layouts.
var responderOrder = []ModelID{ModelGrok, ModelChatGPT, ModelGemini}

// Get returns the registry entry for id.
func Get(id ModelID) (Model, error) {
	m, ok := registry[id]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return m, nil
}

// IsResponder reports whether id is a conversational model (not the system
// aggregator and not the "all" pseudo-target).
func IsResponder(id ModelID) bool {
	_, ok := registry[id]
	return ok && id != ModelSystem
}

// Responders returns the conversational models in canonical order.
func Responders() []ModelID {
	out := make([]ModelID, len(responderOrder))
	copy(out, responderOrder)
	return out
}

// Delay returns the fixed simulated reply delay for id, or zero when the
// model is unknown.
func Delay(id ModelID) time.Duration {
	return registry[id].ReplyDelay
}

// DisplayName returns the human-readable name for id, falling back to the
// raw id for unregistered models.
func DisplayName(id ModelID) string {
	if m, ok := registry[id]; ok {
		return m.Name
	}
	return string(id)
}
