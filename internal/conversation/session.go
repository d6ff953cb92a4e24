// Package conversation owns the session-scoped state of the MindMash chat
// engine: the append-only message log, named threads, the context buffer,
// and reaction annotations. A Session is handed around explicitly; there is
// no package-level state.
package conversation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mindmash-ai/mindmash/internal/models"
)

var (
	ErrThreadNotFound      = errors.New("thread not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrContextItemNotFound = errors.New("context item not found")
)

// InteractionMode steers synthetic AI-to-AI exchanges.
type InteractionMode string

const (
	ModeStandard   InteractionMode = "standard"
	ModeDebate     InteractionMode = "debate"
	ModeBrainstorm InteractionMode = "brainstorm"
)

// Thread is a named, independently counted partition of the message log.
// MessageCount is a cache maintained on every append and always equals the
// true number of messages carrying this thread's id.
type Thread struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	MessageCount int       `json:"message_count"`
}

// Session owns all conversation state for one client for the lifetime of
// the process. Appends are serialized by the session mutex so append order
// equals chronological order even when responder goroutines interleave.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`

	mu          sync.RWMutex
	messages    []Message
	threads     map[string]*Thread
	threadOrder []string
	active      string
	reactions   map[string]string
	context     ContextBuffer

	focus   string
	mode    InteractionMode
	target  models.ModelID
	updated time.Time
}

// NewSession creates a session with a default "Main" thread already active.
func NewSession(title string) *Session {
	if title == "" {
		title = "New Conversation"
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		threads:   make(map[string]*Thread),
		reactions: make(map[string]string),
		mode:      ModeStandard,
		target:    models.TargetAll,
		updated:   now,
	}
	s.CreateThread("Main")
	return s
}

// CreateThread registers a new thread, makes it active, and appends a system
// announcement that counts toward the new thread.
func (s *Session) CreateThread(title string) *Thread {
	s.mu.Lock()
	if title == "" {
		title = fmt.Sprintf("Thread %d", len(s.threads)+1)
	}
	now := time.Now()
	t := &Thread{
		ID:          uuid.NewString(),
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
	}
	s.threads[t.ID] = t
	s.threadOrder = append(s.threadOrder, t.ID)
	s.active = t.ID
	s.appendLocked(Message{
		Kind:     KindText,
		ThreadID: t.ID,
		Sender:   SenderSystem,
		Content:  fmt.Sprintf("Thread %q created", title),
		Severity: SeverityInfo,
	})
	cp := *t
	s.mu.Unlock()
	return &cp
}

// SetActiveThread switches the active-thread pointer. Unknown ids leave the
// pointer untouched and return ErrThreadNotFound; callers log it rather than
// surface it to users.
func (s *Session) SetActiveThread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	s.active = id
	return nil
}

// ActiveThreadID returns the current active thread id.
func (s *Session) ActiveThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Threads returns all threads in creation order.
func (s *Session) Threads() []*Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Thread, 0, len(s.threadOrder))
	for _, id := range s.threadOrder {
		t := *s.threads[id]
		out = append(out, &t)
	}
	return out
}

// Thread returns a snapshot of one thread.
func (s *Session) Thread(id string) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	cp := *t
	return &cp, nil
}

// AppendMessage appends msg to the log, filling in id and timestamp when
// unset, and bumps the owning thread's count and LastUpdated. The thread
// must exist.
func (s *Session) AppendMessage(msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[msg.ThreadID]; !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrThreadNotFound, msg.ThreadID)
	}
	return s.appendLocked(msg), nil
}

func (s *Session) appendLocked(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Kind == "" {
		msg.Kind = KindText
	}
	s.messages = append(s.messages, msg)
	t := s.threads[msg.ThreadID]
	t.MessageCount++
	t.LastUpdated = msg.Timestamp
	s.updated = msg.Timestamp
	return msg
}

// MessagesForThread returns the thread's messages in append order.
func (s *Session) MessagesForThread(id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.threads[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	var out []Message
	for i := range s.messages {
		if s.messages[i].ThreadID == id {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

// SearchMessages filters the active thread's messages by a case-insensitive
// substring match over text content (or interaction content/response). An
// empty query returns the whole active thread.
func (s *Session) SearchMessages(query string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lower := strings.ToLower(query)
	var out []Message
	for i := range s.messages {
		m := &s.messages[i]
		if m.ThreadID != s.active {
			continue
		}
		if query == "" || m.matches(lower) {
			out = append(out, *m)
		}
	}
	return out
}

// SearchMessagesFuzzy is a looser variant of SearchMessages using
// case-insensitive fuzzy matching over the same haystacks.
func (s *Session) SearchMessagesFuzzy(query string) []Message {
	if query == "" {
		return s.SearchMessages("")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for i := range s.messages {
		m := &s.messages[i]
		if m.ThreadID != s.active {
			continue
		}
		if fuzzy.MatchFold(query, m.searchText()) {
			out = append(out, *m)
		}
	}
	return out
}

// SetReaction records an emoji reaction for a message, replacing any
// previous one (last write wins). The message must exist.
func (s *Session) SetReaction(messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	s.reactions[messageID] = emoji
	return nil
}

// Reaction returns the reaction for a message id, if any.
func (s *Session) Reaction(messageID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emoji, ok := s.reactions[messageID]
	return emoji, ok
}

// AddContextItem records a context item (pinned facts, hashtag captures,
// focus topics).
func (s *Session) AddContextItem(content, source string, pinned bool) *ContextItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context.Add(content, source, pinned)
}

// PinContextItem marks an item pinned.
func (s *Session) PinContextItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context.Pin(id)
}

// UnpinContextItem clears an item's pinned flag.
func (s *Session) UnpinContextItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context.Unpin(id)
}

// ContextItems returns all context items in insertion order.
func (s *Session) ContextItems() []*ContextItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context.Items()
}

// ProjectContext renders the pinned context block for prompt injection.
func (s *Session) ProjectContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context.ProjectForPrompt()
}

// SetFocus sets the conversation focus topic; empty clears it.
func (s *Session) SetFocus(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = topic
}

// Focus returns the current conversation focus, empty when unset.
func (s *Session) Focus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus
}

// SetMode switches the interaction mode.
func (s *Session) SetMode(mode InteractionMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// Mode returns the current interaction mode.
func (s *Session) Mode() InteractionMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetTarget selects which responder(s) receive user messages: a single
// model id or models.TargetAll.
func (s *Session) SetTarget(target models.ModelID) error {
	if target != models.TargetAll && !models.IsResponder(target) {
		return fmt.Errorf("%w: %s", models.ErrModelNotFound, target)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
	return nil
}

// Target returns the current responder selection.
func (s *Session) Target() models.ModelID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// TargetResponders expands the current selection into concrete model ids.
func (s *Session) TargetResponders() []models.ModelID {
	if t := s.Target(); t != models.TargetAll {
		return []models.ModelID{t}
	}
	return models.Responders()
}

// UpdatedAt returns the time of the last append.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// HistoryForThread renders a thread's text messages as role/content turns
// for outbound requests, oldest first, capped at the most recent limit
// turns (0 means no cap). Interaction messages are narrative decoration and
// are excluded.
func (s *Session) HistoryForThread(id string, limit int) []HistoryTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var turns []HistoryTurn
	for i := range s.messages {
		m := &s.messages[i]
		if m.ThreadID != id || m.Kind != KindText {
			continue
		}
		role := "assistant"
		switch m.Sender {
		case SenderUser:
			role = "user"
		case SenderSystem:
			role = "system"
		}
		turns = append(turns, HistoryTurn{Role: role, Content: m.Content})
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// HistoryTurn is one role/content pair of the outbound conversation history.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Export is a point-in-time snapshot of the whole session.
type Export struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ActiveID  string            `json:"active_thread_id"`
	Focus     string            `json:"focus,omitempty"`
	Mode      InteractionMode   `json:"mode"`
	Target    models.ModelID    `json:"target"`
	Threads   []*Thread         `json:"threads"`
	Messages  []Message         `json:"messages"`
	Context   []*ContextItem    `json:"context_items"`
	Reactions map[string]string `json:"reactions"`
}

// Snapshot returns a deep-enough copy of the session for export endpoints.
func (s *Session) Snapshot() Export {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*Thread, 0, len(s.threadOrder))
	for _, id := range s.threadOrder {
		t := *s.threads[id]
		threads = append(threads, &t)
	}
	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	reactions := make(map[string]string, len(s.reactions))
	for k, v := range s.reactions {
		reactions[k] = v
	}
	return Export{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updated,
		ActiveID:  s.active,
		Focus:     s.focus,
		Mode:      s.mode,
		Target:    s.target,
		Threads:   threads,
		Messages:  messages,
		Context:   s.context.Items(),
		Reactions: reactions,
	}
}

// containsFold reports whether haystack contains needle case-insensitively.
// needle must already be lowercased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
