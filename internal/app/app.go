// Package app wires the MindMash subsystems together and runs the message
// pipeline: parse, execute commands, classify, dispatch responders.
package app

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mindmash-ai/mindmash/internal/config"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/events"
	"github.com/mindmash-ai/mindmash/internal/orchestrator"
	"github.com/mindmash-ai/mindmash/internal/respond"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// App holds the long-lived subsystems shared by the REPL and the API server.
type App struct {
	Config       *config.Config
	Broker       *events.Broker[events.Payload]
	Orchestrator *orchestrator.Orchestrator

	logger *log.Logger

	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

// New assembles the application from configuration. The live responder is
// only constructed when offline mode is disabled; the simulated responder
// always exists as the fallback path.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		loaded, err := config.Load(false)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	seed := cfg.Orchestrator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var live respond.Responder
	if !cfg.Offline {
		live = respond.NewHTTPResponder(cfg.API.BaseURL, cfg.API.Timeout)
	}
	sim := respond.NewSimulatedResponder(rand.New(rand.NewSource(seed)))

	broker := events.NewBroker[events.Payload]()
	orch := orchestrator.New(orchestrator.Config{
		Offline:              cfg.Offline,
		InteractionFrequency: cfg.Orchestrator.InteractionFrequency,
		HistoryLimit:         cfg.Orchestrator.HistoryLimit,
		DelayScale:           cfg.Orchestrator.DelayScale,
	}, live, sim, broker, rand.New(rand.NewSource(seed)))

	app := &App{
		Config:       cfg,
		Broker:       broker,
		Orchestrator: orch,
		logger:       log.WithPrefix("app"),
		sessions:     make(map[string]*conversation.Session),
	}
	broker.Publish(events.SystemStarted, events.Payload{})
	return app, nil
}

// CreateSession registers a new conversation session.
func (a *App) CreateSession(title string) *conversation.Session {
	s := conversation.NewSession(title)
	a.mu.Lock()
	a.sessions[s.ID] = s
	a.mu.Unlock()
	a.logger.Info("session created", "session", s.ID, "title", title)
	return s
}

// Session looks up a session by id.
func (a *App) Session(id string) (*conversation.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// DeleteSession removes a session from the registry. In-flight dispatches
// for the session finish against the detached object.
func (a *App) DeleteSession(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(a.sessions, id)
	a.logger.Info("session deleted", "session", id)
	return nil
}

// Sessions returns all registered sessions.
func (a *App) Sessions() []*conversation.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*conversation.Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s)
	}
	return out
}

// Shutdown stops the event broker and drops all subscribers.
func (a *App) Shutdown() {
	a.Broker.Publish(events.SystemShutdown, events.Payload{})
	a.Broker.Shutdown()
}
