package orchestrator

import (
	"context"
	"fmt"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
	"github.com/mindmash-ai/mindmash/internal/respond"
)

// ComparisonResult holds one model's answer in a comparison run.
type ComparisonResult struct {
	Model models.ModelID `json:"model"`
	Reply string         `json:"reply"`
	// FellBack marks replies served from the canned table after a live
	// failure.
	FellBack bool `json:"fell_back,omitempty"`
}

// Compare queries the full responder set sequentially (not concurrently)
// with the same prompt and returns each result keyed by responder, in
// canonical order. Results are independent of the thread-based message log.
func (o *Orchestrator) Compare(ctx context.Context, session *conversation.Session, prompt string) ([]ComparisonResult, error) {
	if prompt == "" {
		return nil, fmt.Errorf("comparison prompt must not be empty")
	}

	focus := session.Focus()
	results := make([]ComparisonResult, 0, len(models.Responders()))
	for _, model := range models.Responders() {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		req := respond.Request{
			Prompt:            prompt,
			Model:             model,
			OfflineMode:       o.cfg.Offline,
			ConversationFocus: focus,
		}

		var reply string
		var err error
		if o.cfg.Offline || o.live == nil {
			reply, err = o.sim.Respond(ctx, req)
		} else {
			reply, err = o.live.Respond(ctx, req)
		}

		result := ComparisonResult{Model: model, Reply: reply}
		if err != nil {
			o.logger.Warn("comparison responder failed, using fallback", "model", model, "err", err)
			result.Reply = o.sim.Fallback(model, prompt)
			result.FellBack = true
		}
		results = append(results, result)
	}
	return results, nil
}
