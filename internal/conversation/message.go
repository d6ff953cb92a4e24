package conversation

import (
	"time"

	"github.com/mindmash-ai/mindmash/internal/models"
)

// Kind discriminates the message union.
type Kind string

const (
	// KindText is a plain message from the user, a model, or the system.
	KindText Kind = "text"
	// KindInteraction is a synthetic AI-to-AI exchange inserted into the
	// log to simulate cross-model dialogue. Cosmetic narrative only; this
	// is not a negotiation protocol.
	KindInteraction Kind = "interaction"
)

// Severity grades system messages for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Sender values besides model IDs.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// TextMeta holds the optional annotations a model attaches to a reply.
type TextMeta struct {
	Confidence float64  `json:"confidence,omitempty"`
	Sentiment  string   `json:"sentiment,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Thinking   string   `json:"thinking,omitempty"`
}

// InteractionType names the flavor of a synthetic AI-to-AI exchange.
type InteractionType string

const (
	InteractionQuestion  InteractionType = "question"
	InteractionAgreement InteractionType = "agreement"
	InteractionInsight   InteractionType = "insight"
	InteractionChallenge InteractionType = "challenge"
	InteractionDebate    InteractionType = "debate"
	InteractionIdea      InteractionType = "idea"
)

// Interaction is the payload of a KindInteraction message.
type Interaction struct {
	From             models.ModelID  `json:"from"`
	To               models.ModelID  `json:"to"`
	Type             InteractionType `json:"type"`
	Content          string          `json:"content"`
	Response         string          `json:"response"`
	ContextRelevance float64         `json:"context_relevance"`
}

// Message is one record of the append-only log. Text and interaction
// messages share the envelope; the Kind field selects which payload fields
// are meaningful. Messages are immutable once appended; reactions are
// tracked out-of-band by the session.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ThreadID  string    `json:"thread_id"`
	Timestamp time.Time `json:"timestamp"`

	// Text message fields.
	Sender  string   `json:"sender,omitempty"`
	Content string   `json:"content,omitempty"`
	// DisplayContent is the annotated form produced by the command parser
	// (hashtag/mention spans). Empty when identical to Content.
	DisplayContent string    `json:"display_content,omitempty"`
	Severity       Severity  `json:"severity,omitempty"`
	Meta           *TextMeta `json:"meta,omitempty"`

	// Interaction payload, set only for KindInteraction.
	Interaction *Interaction `json:"interaction,omitempty"`
}

// matches reports whether the message content contains the lowercased query.
func (m *Message) matches(lowerQuery string) bool {
	if m.Kind == KindInteraction && m.Interaction != nil {
		return containsFold(m.Interaction.Content, lowerQuery) ||
			containsFold(m.Interaction.Response, lowerQuery)
	}
	return containsFold(m.Content, lowerQuery)
}

// searchText returns the haystack used by fuzzy search.
func (m *Message) searchText() string {
	if m.Kind == KindInteraction && m.Interaction != nil {
		return m.Interaction.Content + " " + m.Interaction.Response
	}
	return m.Content
}
