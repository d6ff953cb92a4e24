package orchestrator

import (
	"fmt"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/events"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// Synthetic AI-to-AI exchanges are narrative decoration for the feed, not a
// real negotiation protocol. The templates below are filled with model
// display names and the exchange topic.

var interactionContent = map[conversation.InteractionType][]string{
	conversation.InteractionQuestion: {
		"%s, how would you approach %s from your side?",
		"Curious what %s makes of %s. Different training, different instincts.",
	},
	conversation.InteractionAgreement: {
		"%s has a point about %s. I'd only add a caveat on the edges.",
		"Rare consensus: I'm with %s on %s.",
	},
	conversation.InteractionInsight: {
		"Something %s said about %s connects to a pattern I've been tracking.",
		"Piggybacking on %s: there's a sharper framing of %s available.",
	},
	conversation.InteractionChallenge: {
		"I'll challenge %s directly on %s. The premise doesn't hold.",
		"%s, your take on %s skips the hard case. Walk me through it.",
	},
	conversation.InteractionDebate: {
		"%s, defend your position on %s. I'll take the other side.",
		"Formal disagreement with %s on %s. Opening argument:",
	},
	conversation.InteractionIdea: {
		"Riffing with %s: what if we pushed %s one step further?",
		"%s sparked this: a variant of %s nobody has tried.",
	},
}

var interactionResponses = map[conversation.InteractionType][]string{
	conversation.InteractionQuestion: {
		"Fair question. My angle is narrower but it composes with yours.",
		"I'd start from the data rather than the framing, but let's compare notes.",
	},
	conversation.InteractionAgreement: {
		"Appreciated, and your caveat is the interesting part.",
		"Agreed on the core; the boundary cases are where we diverge.",
	},
	conversation.InteractionInsight: {
		"That pattern holds. I can supply two more data points for it.",
		"Sharper indeed. Adopting that framing going forward.",
	},
	conversation.InteractionChallenge: {
		"The premise survives the hard case. Here's the load-bearing step.",
		"Challenge accepted. The counterexample you want doesn't exist, and here's why.",
	},
	conversation.InteractionDebate: {
		"My position stands on three legs; kick any of them.",
		"Opening rebuttal: the trade-off you're ignoring dominates.",
	},
	conversation.InteractionIdea: {
		"Pushed further it breaks, but it breaks in a useful direction.",
		"Yes, and the variant suggests a second one. Chaining them now.",
	},
}

// standardRotation cycles in standard mode; the picker below skips the
// subtype used immediately before so the feed never repeats itself
// back-to-back.
var standardRotation = []conversation.InteractionType{
	conversation.InteractionQuestion,
	conversation.InteractionAgreement,
	conversation.InteractionInsight,
	conversation.InteractionChallenge,
}

// injectInteraction appends one synthetic exchange between two distinct
// responders to the captured thread.
func (o *Orchestrator) injectInteraction(session *conversation.Session, threadID string, targets []models.ModelID, mode conversation.InteractionMode) {
	pool := targets
	if len(pool) < 2 {
		pool = models.Responders()
	}

	o.mu.Lock()
	from := pool[o.rng.Intn(len(pool))]
	to := pool[o.rng.Intn(len(pool))]
	for to == from {
		to = pool[o.rng.Intn(len(pool))]
	}

	subtype := o.pickSubtypeLocked(session.ID, mode)
	contentTmpl := interactionContent[subtype]
	responseTmpl := interactionResponses[subtype]
	content := contentTmpl[o.rng.Intn(len(contentTmpl))]
	response := responseTmpl[o.rng.Intn(len(responseTmpl))]
	relevance := 0.5 + o.rng.Float64()*0.5
	o.mu.Unlock()

	topic := session.Focus()
	if topic == "" {
		topic = "this"
	}

	msg, err := session.AppendMessage(conversation.Message{
		Kind:     conversation.KindInteraction,
		ThreadID: threadID,
		Sender:   string(from),
		Interaction: &conversation.Interaction{
			From:             from,
			To:               to,
			Type:             subtype,
			Content:          fmt.Sprintf(content, models.DisplayName(to), topic),
			Response:         response,
			ContextRelevance: relevance,
		},
	})
	if err != nil {
		o.logger.Error("failed to append interaction", "err", err)
		return
	}
	o.publish(session.ID, events.InteractionInjected, events.Payload{Model: from, ThreadID: threadID, Message: &msg})
}

// pickSubtypeLocked selects the interaction subtype for the session's mode.
// Caller holds o.mu.
func (o *Orchestrator) pickSubtypeLocked(sessionID string, mode conversation.InteractionMode) conversation.InteractionType {
	switch mode {
	case conversation.ModeDebate:
		return conversation.InteractionDebate
	case conversation.ModeBrainstorm:
		return conversation.InteractionIdea
	}

	prev := o.lastInteraction[sessionID]
	subtype := standardRotation[o.rng.Intn(len(standardRotation))]
	for subtype == prev {
		subtype = standardRotation[o.rng.Intn(len(standardRotation))]
	}
	o.lastInteraction[sessionID] = subtype
	return subtype
}
