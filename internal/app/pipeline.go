package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindmash-ai/mindmash/internal/classifier"
	"github.com/mindmash-ai/mindmash/internal/command"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/events"
	"github.com/mindmash-ai/mindmash/internal/models"
	"github.com/mindmash-ai/mindmash/internal/orchestrator"
)

// Result summarizes one trip through the message pipeline. Dispatch is nil
// when the input was a command with only local effect; Comparison is set
// only for /compare inputs.
type Result struct {
	Commands   []command.Command
	Message    *conversation.Message
	Replies    []conversation.Message
	Category   classifier.Category
	Suggested  models.ModelID
	Dispatch   *orchestrator.Dispatch
	Comparison []orchestrator.ComparisonResult
}

// ProcessUserMessage runs one user input through the full pipeline. Verb
// commands take local effect and short-circuit; everything else is appended
// to the active thread, classified, and fanned out to the session's
// responder targets.
func (a *App) ProcessUserMessage(ctx context.Context, sessionID, text string) (*Result, error) {
	session, err := a.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty input")
	}

	cmds := command.Parse(text)
	res := &Result{Commands: cmds}

	if command.Verb(cmds[0].Type) {
		if err := a.runVerb(ctx, session, cmds[0], res); err != nil {
			return nil, err
		}
		return res, nil
	}

	threadID := session.ActiveThreadID()
	display := cmds[len(cmds)-1].ProcessedText
	if display == text {
		display = ""
	}

	for _, cmd := range cmds {
		if cmd.Type != command.TypeHashtag {
			continue
		}
		for _, tag := range cmd.Meta.Hashtags {
			item := session.AddContextItem("#"+tag, "hashtag", false)
			a.publish(session.ID, events.ContextAdded, events.Payload{ThreadID: threadID, Detail: item.Content})
		}
	}

	msg, err := session.AppendMessage(conversation.Message{
		ThreadID:       threadID,
		Sender:         conversation.SenderUser,
		Content:        text,
		DisplayContent: display,
	})
	if err != nil {
		return nil, err
	}
	res.Message = &msg
	a.publish(session.ID, events.MessageAppended, events.Payload{ThreadID: threadID, Message: &msg})

	res.Category = classifier.Classify(text)
	suggested := classifier.SuggestResponder(res.Category)
	target := session.Target()
	if models.IsResponder(suggested) && target != models.TargetAll && target != suggested {
		res.Suggested = suggested
		a.appendSystem(session, fmt.Sprintf("%s might be better suited for this %s question. Your current selection is %s.",
			models.DisplayName(suggested), res.Category, models.DisplayName(target)))
		a.publish(session.ID, events.ResponderSuggested, events.Payload{
			ThreadID:  threadID,
			Suggested: suggested,
			Category:  string(res.Category),
		})
	}

	res.Dispatch = a.Orchestrator.Dispatch(ctx, session, text, session.TargetResponders())
	return res, nil
}

// runVerb applies a slash command's local effect. Pin, focus, thread, mode
// toggles and visualize never reach the orchestrator; compare runs the
// sequential comparison path.
func (a *App) runVerb(ctx context.Context, session *conversation.Session, cmd command.Command, res *Result) error {
	arg := cmd.Meta.Argument
	switch cmd.Type {
	case command.TypePin:
		if arg == "" {
			a.appendSystem(session, "Nothing to pin. Usage: /pin <something worth remembering>")
			return nil
		}
		item := session.AddContextItem(arg, "user", true)
		a.appendSystem(session, fmt.Sprintf("Pinned to context: %q", arg))
		a.publish(session.ID, events.ContextPinned, events.Payload{Detail: item.Content})

	case command.TypeFocus:
		if arg == "" || strings.EqualFold(arg, "off") {
			session.SetFocus("")
			a.appendSystem(session, "Conversation focus cleared.")
		} else {
			session.SetFocus(arg)
			session.AddContextItem(fmt.Sprintf("Conversation focus: %s", arg), "focus", true)
			a.appendSystem(session, fmt.Sprintf("Conversation focused on %q. The models will keep this in mind.", arg))
		}
		a.publish(session.ID, events.FocusChanged, events.Payload{Detail: session.Focus()})

	case command.TypeThread:
		title := arg
		if title == "" {
			title = "New Thread"
		}
		thread := session.CreateThread(title)
		a.publish(session.ID, events.ThreadCreated, events.Payload{ThreadID: thread.ID, Detail: thread.Title})

	case command.TypeCompare:
		prompt := strings.Join(cmd.Meta.CompareItems, " vs ")
		results, err := a.Orchestrator.Compare(ctx, session, prompt)
		if err != nil {
			return fmt.Errorf("comparison failed: %w", err)
		}
		res.Comparison = results

	case command.TypeVisualize:
		topic := arg
		if topic == "" {
			topic = "this conversation"
		}
		a.appendSystem(session, fmt.Sprintf("Generating a concept map for %s. Open the visualization panel to explore it.", topic))

	case command.TypeDebate:
		a.toggleMode(session, conversation.ModeDebate, "Debate mode")

	case command.TypeBrainstorm:
		a.toggleMode(session, conversation.ModeBrainstorm, "Brainstorm mode")
	}
	return nil
}

// toggleMode flips the session between standard and the given mode.
func (a *App) toggleMode(session *conversation.Session, mode conversation.InteractionMode, label string) {
	if session.Mode() == mode {
		session.SetMode(conversation.ModeStandard)
		a.appendSystem(session, fmt.Sprintf("%s off. Back to the usual conversation.", label))
	} else {
		session.SetMode(mode)
		a.appendSystem(session, fmt.Sprintf("%s on. The models will %s.", label, modeHint(mode)))
	}
}

func modeHint(mode conversation.InteractionMode) string {
	if mode == conversation.ModeDebate {
		return "challenge each other's positions"
	}
	return "riff on each other's ideas"
}

// appendSystem logs and appends a system notice to the active thread.
func (a *App) appendSystem(session *conversation.Session, content string) {
	msg, err := session.AppendMessage(conversation.Message{
		ThreadID: session.ActiveThreadID(),
		Sender:   conversation.SenderSystem,
		Content:  content,
		Severity: conversation.SeverityInfo,
	})
	if err != nil {
		a.logger.Warn("failed to append system message", "error", err)
		return
	}
	a.publish(session.ID, events.MessageAppended, events.Payload{ThreadID: msg.ThreadID, Message: &msg})
}

func (a *App) publish(sessionID string, typ events.EventType, payload events.Payload) {
	a.Broker.Publish(typ, payload, events.WithSessionID(sessionID))
}
