package conversation

import (
	"errors"
	"strings"
	"testing"

	"github.com/mindmash-ai/mindmash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionHasActiveMainThread(t *testing.T) {
	s := NewSession("test")
	threads := s.Threads()
	require.Len(t, threads, 1)
	assert.Equal(t, "Main", threads[0].Title)
	assert.Equal(t, threads[0].ID, s.ActiveThreadID())

	// Thread creation announces itself with a system message that counts
	// toward the new thread.
	msgs, err := s.MessagesForThread(threads[0].ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, SenderSystem, msgs[0].Sender)
	assert.Equal(t, 1, threads[0].MessageCount)
}

func TestThreadIsolation(t *testing.T) {
	s := NewSession("test")
	a := s.ActiveThreadID()
	b := s.CreateThread("side").ID

	for i, tc := range []struct {
		thread  string
		content string
	}{
		{a, "first in A"},
		{b, "first in B"},
		{a, "second in A"},
	} {
		_, err := s.AppendMessage(Message{ThreadID: tc.thread, Sender: SenderUser, Content: tc.content})
		require.NoError(t, err, "append %d", i)
	}

	msgsA, err := s.MessagesForThread(a)
	require.NoError(t, err)
	// 1 creation announcement + 2 user messages, in append order.
	require.Len(t, msgsA, 3)
	assert.Equal(t, "first in A", msgsA[1].Content)
	assert.Equal(t, "second in A", msgsA[2].Content)

	threadA, err := s.Thread(a)
	require.NoError(t, err)
	assert.Equal(t, len(msgsA), threadA.MessageCount, "messageCount cache must equal true count")

	msgsB, err := s.MessagesForThread(b)
	require.NoError(t, err)
	require.Len(t, msgsB, 2)
	assert.Equal(t, "first in B", msgsB[1].Content)
}

func TestAppendValidatesThread(t *testing.T) {
	s := NewSession("test")
	_, err := s.AppendMessage(Message{ThreadID: "nope", Sender: SenderUser, Content: "x"})
	assert.True(t, errors.Is(err, ErrThreadNotFound))
}

func TestSetActiveThreadUnknown(t *testing.T) {
	s := NewSession("test")
	before := s.ActiveThreadID()
	err := s.SetActiveThread("missing")
	assert.True(t, errors.Is(err, ErrThreadNotFound))
	assert.Equal(t, before, s.ActiveThreadID(), "pointer must be untouched on failure")
}

func TestSearchMessages(t *testing.T) {
	s := NewSession("test")
	active := s.ActiveThreadID()
	other := s.CreateThread("elsewhere").ID
	require.NoError(t, s.SetActiveThread(active))

	mustAppend(t, s, Message{ThreadID: active, Sender: SenderUser, Content: "Quantum entanglement basics"})
	mustAppend(t, s, Message{ThreadID: active, Sender: string(models.ModelGrok), Content: "Entanglement links particle states."})
	mustAppend(t, s, Message{ThreadID: other, Sender: SenderUser, Content: "quantum in another thread"})
	mustAppend(t, s, Message{
		ThreadID: active,
		Kind:     KindInteraction,
		Interaction: &Interaction{
			From:     models.ModelGrok,
			To:       models.ModelGemini,
			Type:     InteractionQuestion,
			Content:  "What about decoherence?",
			Response: "Decoherence destroys superposition.",
		},
	})

	t.Run("case insensitive substring", func(t *testing.T) {
		got := s.SearchMessages("ENTANGLE")
		require.Len(t, got, 2)
	})

	t.Run("interaction content and response are searched", func(t *testing.T) {
		assert.Len(t, s.SearchMessages("decoherence"), 1)
		assert.Len(t, s.SearchMessages("superposition"), 1)
	})

	t.Run("restricted to active thread", func(t *testing.T) {
		for _, m := range s.SearchMessages("quantum") {
			assert.Equal(t, active, m.ThreadID)
		}
	})

	t.Run("empty query returns whole active thread", func(t *testing.T) {
		all, err := s.MessagesForThread(active)
		require.NoError(t, err)
		assert.Len(t, s.SearchMessages(""), len(all))
	})

	t.Run("fuzzy matches partial tokens", func(t *testing.T) {
		got := s.SearchMessagesFuzzy("entglmnt")
		assert.NotEmpty(t, got)
	})
}

func TestReactionsLastWriteWins(t *testing.T) {
	s := NewSession("test")
	msg := mustAppend(t, s, Message{ThreadID: s.ActiveThreadID(), Sender: SenderUser, Content: "react to me"})

	require.NoError(t, s.SetReaction(msg.ID, "👍"))
	require.NoError(t, s.SetReaction(msg.ID, "🔥"))

	got, ok := s.Reaction(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "🔥", got)

	err := s.SetReaction("missing", "x")
	assert.True(t, errors.Is(err, ErrMessageNotFound))
}

func TestContextProjection(t *testing.T) {
	s := NewSession("test")
	assert.Equal(t, "", s.ProjectContext(), "no pinned items means empty projection")

	item := s.AddContextItem("X", "Y", true)
	proj := s.ProjectContext()
	assert.Contains(t, proj, "- X (from Y)")
	assert.True(t, strings.HasPrefix(proj, projectionHeader))

	// Unpinned items are retained but excluded from the projection.
	s.AddContextItem("hidden", "auto", false)
	assert.NotContains(t, s.ProjectContext(), "hidden")
	assert.Len(t, s.ContextItems(), 2)

	// Idempotent toggles.
	require.NoError(t, s.UnpinContextItem(item.ID))
	require.NoError(t, s.UnpinContextItem(item.ID))
	assert.Equal(t, "", s.ProjectContext())
	require.NoError(t, s.PinContextItem(item.ID))
	assert.Contains(t, s.ProjectContext(), "- X (from Y)")

	assert.True(t, errors.Is(s.PinContextItem("missing"), ErrContextItemNotFound))
}

func TestHistoryForThread(t *testing.T) {
	s := NewSession("test")
	id := s.ActiveThreadID()
	mustAppend(t, s, Message{ThreadID: id, Sender: SenderUser, Content: "hello"})
	mustAppend(t, s, Message{ThreadID: id, Sender: string(models.ModelChatGPT), Content: "hi there"})
	mustAppend(t, s, Message{ThreadID: id, Kind: KindInteraction, Interaction: &Interaction{
		From: models.ModelGrok, To: models.ModelChatGPT, Type: InteractionInsight,
		Content: "aside", Response: "noted",
	}})

	turns := s.HistoryForThread(id, 0)
	// announcement (system) + user + assistant; interactions excluded.
	require.Len(t, turns, 3)
	assert.Equal(t, "system", turns[0].Role)
	assert.Equal(t, "user", turns[1].Role)
	assert.Equal(t, "assistant", turns[2].Role)

	capped := s.HistoryForThread(id, 2)
	require.Len(t, capped, 2)
	assert.Equal(t, "hello", capped[0].Content)
}

func TestTargetSelection(t *testing.T) {
	s := NewSession("test")
	assert.Equal(t, models.TargetAll, s.Target())
	assert.Len(t, s.TargetResponders(), 3)

	require.NoError(t, s.SetTarget(models.ModelGemini))
	assert.Equal(t, []models.ModelID{models.ModelGemini}, s.TargetResponders())

	err := s.SetTarget("claude")
	assert.True(t, errors.Is(err, models.ErrModelNotFound))
	assert.Equal(t, models.ModelGemini, s.Target())
}

func mustAppend(t *testing.T, s *Session, msg Message) Message {
	t.Helper()
	out, err := s.AppendMessage(msg)
	require.NoError(t, err)
	return out
}
