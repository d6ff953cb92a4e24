package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// projectionHeader precedes the pinned-item lines in the prompt projection.
const projectionHeader = "Important context to remember:\n"

// ContextItem is a small fact pinned or unpinned by the user, or derived
// from hashtags and focus commands. Unpinned items are retained but excluded
// from the prompt projection.
type ContextItem struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsPinned  bool      `json:"is_pinned"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// ContextBuffer holds the session's context items in insertion order.
// Not safe for concurrent use on its own; the owning session serializes
// access.
type ContextBuffer struct {
	items []*ContextItem
}

// Add appends a new item and returns it.
func (b *ContextBuffer) Add(content, source string, pinned bool) *ContextItem {
	item := &ContextItem{
		ID:        uuid.NewString(),
		Content:   content,
		IsPinned:  pinned,
		Timestamp: time.Now(),
		Source:    source,
	}
	b.items = append(b.items, item)
	return item
}

// Pin marks the item pinned. Idempotent; unknown ids return ErrContextItemNotFound.
func (b *ContextBuffer) Pin(id string) error {
	return b.setPinned(id, true)
}

// Unpin clears the pinned flag. Idempotent; unknown ids return ErrContextItemNotFound.
func (b *ContextBuffer) Unpin(id string) error {
	return b.setPinned(id, false)
}

func (b *ContextBuffer) setPinned(id string, pinned bool) error {
	for _, item := range b.items {
		if item.ID == id {
			item.IsPinned = pinned
			return nil
		}
	}
	return ErrContextItemNotFound
}

// Items returns a copy of all items in insertion order.
func (b *ContextBuffer) Items() []*ContextItem {
	out := make([]*ContextItem, len(b.items))
	copy(out, b.items)
	return out
}

// ProjectForPrompt renders the pinned items as a block suitable for
// prepending to a responder's conversation history. Returns the empty
// string when nothing is pinned.
func (b *ContextBuffer) ProjectForPrompt() string {
	var sb strings.Builder
	for _, item := range b.items {
		if !item.IsPinned {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(item.Content)
		sb.WriteString(" (from ")
		sb.WriteString(item.Source)
		sb.WriteString(")\n")
	}
	if sb.Len() == 0 {
		return ""
	}
	return projectionHeader + sb.String()
}
