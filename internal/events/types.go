package events

import (
	"context"
	"time"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// EventType identifies the type of event
type EventType string

// Core event types
const (
	// Conversation events
	MessageAppended     EventType = "conversation.message.appended"
	ThreadCreated       EventType = "conversation.thread.created"
	ThreadActivated     EventType = "conversation.thread.activated"
	InteractionInjected EventType = "conversation.interaction.injected"

	// Responder events
	TypingStarted      EventType = "responder.typing.started"
	TypingStopped      EventType = "responder.typing.stopped"
	ResponderFellBack  EventType = "responder.fellback"
	ResponderSuggested EventType = "responder.suggested"

	// Context events
	ContextAdded    EventType = "context.added"
	ContextPinned   EventType = "context.pinned"
	ContextUnpinned EventType = "context.unpinned"
	FocusChanged    EventType = "context.focus.changed"

	// System events
	SystemStarted  EventType = "system.started"
	SystemShutdown EventType = "system.shutdown"
	SystemError    EventType = "system.error"
)

// Event represents a generic event in the system
type Event[T any] struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Payload   T         `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
}

// Payload is the concrete event body used across the conversation engine.
// Fields are populated per event type; the rest stay zero.
type Payload struct {
	Model     models.ModelID        `json:"model,omitempty"`
	ThreadID  string                `json:"thread_id,omitempty"`
	Message   *conversation.Message `json:"message,omitempty"`
	Suggested models.ModelID        `json:"suggested,omitempty"`
	Category  string                `json:"category,omitempty"`
	Detail    string                `json:"detail,omitempty"`
}

// Publisher defines the interface for publishing events
type Publisher[T any] interface {
	Publish(eventType EventType, payload T, opts ...PublishOption)
}

// Subscriber defines the interface for subscribing to events
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, filter ...EventFilter) <-chan Event[T]
}

// EventFilter defines a filter function for events
type EventFilter func(Event[any]) bool

// PublishOption defines options for publishing events
type PublishOption func(*PublishOptions)

// PublishOptions contains options for publishing events
type PublishOptions struct {
	SessionID string
}

// WithSessionID sets the session ID for the event
func WithSessionID(sessionID string) PublishOption {
	return func(o *PublishOptions) {
		o.SessionID = sessionID
	}
}

// FilterBySession keeps only events carrying the given session ID.
func FilterBySession(sessionID string) EventFilter {
	return func(e Event[any]) bool {
		return e.SessionID == sessionID
	}
}

// FilterByType keeps only events of the given types.
func FilterByType(types ...EventType) EventFilter {
	return func(e Event[any]) bool {
		for _, t := range types {
			if e.Type == t {
				return true
			}
		}
		return false
	}
}
