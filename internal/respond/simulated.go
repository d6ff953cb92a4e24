package respond

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/mindmash-ai/mindmash/internal/classifier"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// cannedTables maps model -> topic bucket -> reply templates. A "%s" in a
// template is filled with the prompt (or focus topic). The buckets line up
// with classifier categories plus a default.
var cannedTables = map[models.ModelID]map[string][]string{
	models.ModelGrok: {
		"technical": {
			"Breaking this down from first principles: %s reduces to a state-transition problem. Map the states, the transitions fall out naturally.",
			"The core mechanism behind %s is simpler than it looks. Strip the abstraction layers and you'll find a straightforward feedback loop.",
			"I'd profile before theorizing about %s. Measured behavior beats assumed behavior every time.",
		},
		"math": {
			"Running the numbers on %s: the structure suggests a closed-form solution. Let me sketch the derivation.",
			"Quick sanity check on %s: the orders of magnitude work out, so the approach is sound.",
		},
		"default": {
			"Interesting angle on %s. My take: the conventional framing misses the second-order effects.",
			"Let me be direct about %s: most explanations overcomplicate it. Here's the minimal version.",
			"There's a physics analogy for %s that makes this click: think of it as energy minimization.",
		},
	},
	models.ModelGemini: {
		"creative": {
			"Picture %s as a canvas: each constraint is a brushstroke, and the composition emerges from how they overlap.",
			"What if we inverted %s entirely? Sometimes the mirror image reveals the idea you were actually reaching for.",
			"I see three variations on %s worth exploring. One literal, one metaphorical, one that breaks the frame.",
		},
		"default": {
			"There's a pattern hiding in %s that connects to something unexpected. Let me draw the line between them.",
			"%s works on multiple levels at once. The surface reading is fine, but the deeper layer is more interesting.",
			"Let me riff on %s for a moment. The adjacent possibilities are richer than the original question.",
		},
	},
	models.ModelChatGPT: {
		"factual": {
			"Here's what we know about %s: the established view, the main caveats, and where the evidence is thin.",
			"To summarize %s accurately: the short answer is nuanced, so let me give both the headline and the fine print.",
		},
		"opinion": {
			"On %s, reasonable arguments run both ways. Weighing them, I lean toward the pragmatic middle ground.",
			"My considered view on %s: the strongest case accounts for the trade-offs rather than ignoring them.",
		},
		"default": {
			"Let me give %s a balanced treatment: context first, then the key points, then the caveats.",
			"Good question about %s. Here's a structured way to think about it, step by step.",
			"%s has a few dimensions worth separating before answering. Taking them in order:",
		},
	},
}

// debateLeads and brainstormLeads color simulated replies while the session
// is in the corresponding interaction mode.
var (
	debateLeads = []string{
		"Taking the opposing corner on this one: ",
		"I'll push back here. ",
		"For the sake of the debate, consider the counter-position: ",
	}
	brainstormLeads = []string{
		"Building on that, ",
		"Wild idea, no filter: ",
		"Yes, and: ",
	}
)

// SimulatedResponder draws replies from static local tables. It is used in
// offline mode and as the fallback source when the live backend fails. The
// random source is injected so tests can pin a seed.
type SimulatedResponder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedResponder creates a simulated responder over rng.
func NewSimulatedResponder(rng *rand.Rand) *SimulatedResponder {
	return &SimulatedResponder{rng: rng}
}

// Respond implements the Responder interface from local tables only. It
// never fails.
func (s *SimulatedResponder) Respond(_ context.Context, req Request) (string, error) {
	return s.generate(req.Model, req.Prompt, req.ConversationFocus, req.InteractionMode), nil
}

// Fallback produces a canned reply for a model whose live call failed.
func (s *SimulatedResponder) Fallback(model models.ModelID, prompt string) string {
	return s.generate(model, prompt, "", "")
}

func (s *SimulatedResponder) generate(model models.ModelID, prompt, focus, mode string) string {
	table, ok := cannedTables[model]
	if !ok {
		table = cannedTables[models.ModelChatGPT]
	}

	bucket := string(classifier.Classify(prompt))
	templates, ok := table[bucket]
	if !ok {
		templates = table["default"]
	}

	topic := topicOf(prompt)
	if focus != "" {
		topic = focus
	}

	s.mu.Lock()
	reply := fmt.Sprintf(pick(s.rng, templates), topic)
	switch conversation.InteractionMode(mode) {
	case conversation.ModeDebate:
		reply = pick(s.rng, debateLeads) + reply
	case conversation.ModeBrainstorm:
		reply = pick(s.rng, brainstormLeads) + reply
	}
	s.mu.Unlock()
	return reply
}

// topicOf compacts a prompt into a short quotable topic.
func topicOf(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	words := strings.Fields(prompt)
	if len(words) > 8 {
		return strings.Join(words[:8], " ") + "…"
	}
	if prompt == "" {
		return "that"
	}
	return prompt
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}
