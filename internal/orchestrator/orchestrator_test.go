package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
	"github.com/mindmash-ai/mindmash/internal/respond"
)

type stubResponder struct {
	mu    sync.Mutex
	calls []models.ModelID
	fn    func(req respond.Request) (string, error)
}

func (s *stubResponder) Respond(_ context.Context, req respond.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.Model)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(req)
	}
	return "stub reply from " + string(req.Model), nil
}

func newTestOrchestrator(cfg Config, live respond.Responder, seed int64) *Orchestrator {
	sim := respond.NewSimulatedResponder(rand.New(rand.NewSource(seed)))
	return New(cfg, live, sim, nil, rand.New(rand.NewSource(seed)))
}

func TestDispatchAppendsOneReplyPerTarget(t *testing.T) {
	cfg := Config{Offline: false, InteractionFrequency: 0.0001, DelayScale: 0}
	o := newTestOrchestrator(cfg, &stubResponder{}, 1)

	s := conversation.NewSession("t")
	thread := s.ActiveThreadID()
	d := o.Dispatch(context.Background(), s, "hello", models.Responders())
	d.Wait()

	msgs, err := s.MessagesForThread(thread)
	if err != nil {
		t.Fatal(err)
	}
	bySender := map[string]int{}
	for _, m := range msgs {
		bySender[m.Sender]++
	}
	for _, model := range models.Responders() {
		if bySender[string(model)] != 1 {
			t.Errorf("expected exactly one reply from %s, got %d", model, bySender[string(model)])
		}
	}
}

func TestDispatchFallbackOnFailure(t *testing.T) {
	failing := &stubResponder{fn: func(req respond.Request) (string, error) {
		return "", errors.New("backend down")
	}}
	cfg := Config{Offline: false, InteractionFrequency: 0.0001, DelayScale: 0}
	o := newTestOrchestrator(cfg, failing, 2)

	s := conversation.NewSession("t")
	thread := s.ActiveThreadID()
	d := o.Dispatch(context.Background(), s, "explain the algorithm", []models.ModelID{models.ModelGrok})
	d.Wait()

	msgs, _ := s.MessagesForThread(thread)
	var reply *conversation.Message
	for i := range msgs {
		if msgs[i].Sender == string(models.ModelGrok) {
			reply = &msgs[i]
		}
	}
	if reply == nil {
		t.Fatal("failed responder's message must still be appended, never dropped")
	}
	if reply.Content == "" || strings.Contains(reply.Content, "backend down") {
		t.Errorf("reply should come from the canned table, got %q", reply.Content)
	}
}

func TestDispatchRoutesToThreadCapturedAtDispatch(t *testing.T) {
	release := make(chan struct{})
	blocking := &stubResponder{fn: func(req respond.Request) (string, error) {
		<-release
		return "late reply", nil
	}}
	cfg := Config{Offline: false, InteractionFrequency: 0.0001, DelayScale: 0}
	o := newTestOrchestrator(cfg, blocking, 3)

	s := conversation.NewSession("t")
	original := s.ActiveThreadID()
	d := o.Dispatch(context.Background(), s, "hi", []models.ModelID{models.ModelChatGPT})

	// Navigate away mid-flight; the reply must still land in the thread
	// that was active at dispatch time.
	other := s.CreateThread("elsewhere")
	close(release)
	d.Wait()

	origMsgs, _ := s.MessagesForThread(original)
	found := false
	for _, m := range origMsgs {
		if m.Content == "late reply" {
			found = true
		}
	}
	if !found {
		t.Error("reply did not land in the dispatch-time thread")
	}

	otherMsgs, _ := s.MessagesForThread(other.ID)
	for _, m := range otherMsgs {
		if m.Content == "late reply" {
			t.Error("reply leaked into the newly active thread")
		}
	}
}

func TestDispatchCancellation(t *testing.T) {
	cfg := Config{Offline: true, InteractionFrequency: 0.0001, DelayScale: 1}
	o := newTestOrchestrator(cfg, nil, 4)

	s := conversation.NewSession("t")
	thread := s.ActiveThreadID()
	before, _ := s.MessagesForThread(thread)

	ctx, cancel := context.WithCancel(context.Background())
	d := o.Dispatch(ctx, s, "hello", models.Responders())
	cancel()
	d.Wait()

	after, _ := s.MessagesForThread(thread)
	if len(after) != len(before) {
		t.Errorf("cancelled dispatch should not append replies: %d -> %d", len(before), len(after))
	}
}

func TestInteractionInjection(t *testing.T) {
	cfg := Config{Offline: true, InteractionFrequency: 0.999999, DelayScale: 0}
	o := newTestOrchestrator(cfg, nil, 5)

	s := conversation.NewSession("t")
	thread := s.ActiveThreadID()
	d := o.Dispatch(context.Background(), s, "hello all", models.Responders())
	d.Wait()

	msgs, _ := s.MessagesForThread(thread)
	var interactions []conversation.Message
	for _, m := range msgs {
		if m.Kind == conversation.KindInteraction {
			interactions = append(interactions, m)
		}
	}
	if len(interactions) != 1 {
		t.Fatalf("expected exactly one injected interaction, got %d", len(interactions))
	}

	in := interactions[0].Interaction
	if in.From == in.To {
		t.Error("interaction participants must be distinct")
	}
	if !models.IsResponder(in.From) || !models.IsResponder(in.To) {
		t.Errorf("participants must be responders: %s -> %s", in.From, in.To)
	}
}

func TestInteractionSubtypeFollowsMode(t *testing.T) {
	cfg := Config{Offline: true, InteractionFrequency: 0.999999, DelayScale: 0}

	tests := []struct {
		mode conversation.InteractionMode
		want conversation.InteractionType
	}{
		{conversation.ModeDebate, conversation.InteractionDebate},
		{conversation.ModeBrainstorm, conversation.InteractionIdea},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			o := newTestOrchestrator(cfg, nil, 6)
			s := conversation.NewSession("t")
			s.SetMode(tt.mode)
			thread := s.ActiveThreadID()
			d := o.Dispatch(context.Background(), s, "topic", models.Responders())
			d.Wait()

			msgs, _ := s.MessagesForThread(thread)
			for _, m := range msgs {
				if m.Kind == conversation.KindInteraction && m.Interaction.Type != tt.want {
					t.Errorf("mode %s should produce %s interactions, got %s", tt.mode, tt.want, m.Interaction.Type)
				}
			}
		})
	}
}

func TestStandardRotationAvoidsImmediateRepeat(t *testing.T) {
	cfg := Config{Offline: true, InteractionFrequency: 0.999999, DelayScale: 0}
	o := newTestOrchestrator(cfg, nil, 7)

	s := conversation.NewSession("t")
	thread := s.ActiveThreadID()
	for i := 0; i < 12; i++ {
		o.Dispatch(context.Background(), s, "again", models.Responders()).Wait()
	}

	msgs, _ := s.MessagesForThread(thread)
	var seq []conversation.InteractionType
	for _, m := range msgs {
		if m.Kind == conversation.KindInteraction {
			seq = append(seq, m.Interaction.Type)
		}
	}
	if len(seq) < 2 {
		t.Fatalf("expected several interactions, got %d", len(seq))
	}
	for i := 1; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			t.Errorf("subtype repeated back-to-back at %d: %s", i, seq[i])
		}
	}
}

func TestCompareIsSequentialAndComplete(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	stub := &stubResponder{fn: func(req respond.Request) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		if req.Model == models.ModelGemini {
			return "", errors.New("gemini down")
		}
		return "compare reply " + string(req.Model), nil
	}}

	cfg := Config{Offline: false, InteractionFrequency: 0.0001, DelayScale: 0}
	o := newTestOrchestrator(cfg, stub, 8)
	s := conversation.NewSession("t")

	results, err := o.Compare(context.Background(), s, "rust vs go")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(models.Responders()) {
		t.Fatalf("expected %d results, got %d", len(models.Responders()), len(results))
	}
	if maxInFlight != 1 {
		t.Errorf("comparison must query sequentially, saw %d concurrent calls", maxInFlight)
	}

	for _, r := range results {
		if r.Reply == "" {
			t.Errorf("empty reply for %s", r.Model)
		}
		if r.Model == models.ModelGemini && !r.FellBack {
			t.Error("failed comparison call must be marked as fallback")
		}
	}

	// Comparison results are independent of the message log.
	msgs, _ := s.MessagesForThread(s.ActiveThreadID())
	for _, m := range msgs {
		if strings.HasPrefix(m.Content, "compare reply") {
			t.Error("comparison replies must not be appended to the log")
		}
	}
}

func TestCompareEmptyPrompt(t *testing.T) {
	o := newTestOrchestrator(Config{Offline: true}, nil, 9)
	if _, err := o.Compare(context.Background(), conversation.NewSession("t"), ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
