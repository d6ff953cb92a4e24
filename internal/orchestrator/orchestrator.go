// Package orchestrator fans a user message out to the selected responders,
// paces their replies, absorbs backend failures into canned fallbacks, and
// occasionally injects a synthetic AI-to-AI interaction into the log.
package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/events"
	"github.com/mindmash-ai/mindmash/internal/models"
	"github.com/mindmash-ai/mindmash/internal/respond"
)

// Config tunes orchestration behavior.
type Config struct {
	// Offline skips the live backend entirely and serves simulated replies.
	Offline bool
	// InteractionFrequency is the probability of injecting one AI-to-AI
	// interaction after a fan-out. Default 0.7.
	InteractionFrequency float64
	// HistoryLimit caps the conversation history sent per request
	// (0 = unlimited).
	HistoryLimit int
	// DelayScale multiplies the per-model reply delays. Tests set 0 to
	// run without pacing.
	DelayScale float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Offline:              true,
		InteractionFrequency: 0.7,
		HistoryLimit:         24,
		DelayScale:           1.0,
	}
}

// Orchestrator coordinates responder fan-out for conversation sessions.
// The random source is injected so tests can pin a seed and assert
// deterministic outcomes.
type Orchestrator struct {
	cfg    Config
	live   respond.Responder
	sim    *respond.SimulatedResponder
	broker *events.Broker[events.Payload]
	logger *log.Logger

	mu              sync.Mutex
	rng             *rand.Rand
	lastInteraction map[string]conversation.InteractionType
}

// New creates an orchestrator. live may be nil when cfg.Offline is set.
func New(cfg Config, live respond.Responder, sim *respond.SimulatedResponder, broker *events.Broker[events.Payload], rng *rand.Rand) *Orchestrator {
	if cfg.InteractionFrequency == 0 {
		cfg.InteractionFrequency = 0.7
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{
		cfg:             cfg,
		live:            live,
		sim:             sim,
		broker:          broker,
		logger:          log.WithPrefix("orchestrator"),
		rng:             rng,
		lastInteraction: make(map[string]conversation.InteractionType),
	}
}

// Dispatch schedules one reply per target for prompt and returns a handle
// the caller can wait on. The active thread id is captured here, at
// dispatch time: replies land in this thread even if the user navigates
// away mid-flight, preserving conversational integrity.
func (o *Orchestrator) Dispatch(ctx context.Context, session *conversation.Session, prompt string, targets []models.ModelID) *Dispatch {
	threadID := session.ActiveThreadID()
	history := session.HistoryForThread(threadID, o.cfg.HistoryLimit)
	if block := session.ProjectContext(); block != "" {
		history = append([]conversation.HistoryTurn{{Role: "system", Content: block}}, history...)
	}
	focus := session.Focus()
	mode := session.Mode()

	// Roll the interaction dice up front so a fixed seed fully determines
	// the outcome regardless of goroutine completion order.
	inject := len(targets) > 0 && o.roll() < o.cfg.InteractionFrequency

	d := &Dispatch{done: make(chan struct{})}
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(model models.ModelID) {
			defer wg.Done()
			o.runResponder(ctx, session, threadID, model, prompt, history, focus, mode)
		}(target)
	}

	go func() {
		defer close(d.done)
		wg.Wait()
		if ctx.Err() != nil {
			return
		}
		if inject {
			o.injectInteraction(session, threadID, targets, mode)
		}
	}()
	return d
}

// runResponder produces a single reply: typing on, pacing delay, live call
// with silent fallback, append, typing off.
func (o *Orchestrator) runResponder(ctx context.Context, session *conversation.Session, threadID string, model models.ModelID, prompt string, history []conversation.HistoryTurn, focus string, mode conversation.InteractionMode) {
	o.publish(session.ID, events.TypingStarted, events.Payload{Model: model, ThreadID: threadID})
	defer o.publish(session.ID, events.TypingStopped, events.Payload{Model: model, ThreadID: threadID})

	if delay := o.replyDelay(model); delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	if ctx.Err() != nil {
		return
	}

	req := respond.Request{
		Prompt:              prompt,
		Model:               model,
		OfflineMode:         o.cfg.Offline,
		ConversationHistory: history,
		ConversationFocus:   focus,
		InteractionMode:     string(mode),
	}

	var reply string
	var err error
	if o.cfg.Offline || o.live == nil {
		reply, err = o.sim.Respond(ctx, req)
	} else {
		reply, err = o.live.Respond(ctx, req)
	}
	if err != nil {
		// Failure is absorbed, never surfaced to the user beyond an
		// informational banner: substitute a canned reply for this model.
		o.logger.Warn("responder failed, using fallback", "model", model, "err", err)
		o.publish(session.ID, events.ResponderFellBack, events.Payload{Model: model, ThreadID: threadID, Detail: err.Error()})
		reply = o.sim.Fallback(model, prompt)
	}

	msg, err := session.AppendMessage(conversation.Message{
		Kind:     conversation.KindText,
		ThreadID: threadID,
		Sender:   string(model),
		Content:  reply,
		Meta:     &conversation.TextMeta{Confidence: o.confidence()},
	})
	if err != nil {
		o.logger.Error("failed to append reply", "model", model, "err", err)
		return
	}
	o.publish(session.ID, events.MessageAppended, events.Payload{Model: model, ThreadID: threadID, Message: &msg})
}

// replyDelay returns the scaled pacing delay for a model.
func (o *Orchestrator) replyDelay(model models.ModelID) time.Duration {
	return time.Duration(float64(models.Delay(model)) * o.cfg.DelayScale)
}

func (o *Orchestrator) publish(sessionID string, typ events.EventType, payload events.Payload) {
	if o.broker != nil {
		o.broker.Publish(typ, payload, events.WithSessionID(sessionID))
	}
}

func (o *Orchestrator) roll() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Float64()
}

func (o *Orchestrator) confidence() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return 0.72 + o.rng.Float64()*0.26
}

// Dispatch is a handle over one in-flight fan-out.
type Dispatch struct {
	done chan struct{}
}

// Wait blocks until every scheduled reply (and any injected interaction)
// has been appended or cancelled.
func (d *Dispatch) Wait() {
	<-d.done
}

// Done exposes the completion channel for select loops.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}
