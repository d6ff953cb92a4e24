// Package events provides the publish-subscribe seam between the
// conversation engine and its transports (websocket, SSE, CLI).
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	defaultBufferSize = 64
	defaultMaxEvents  = 1000
)

// Broker implements a generic publish-subscribe broker with type safety
type Broker[T any] struct {
	subs       map[chan Event[T]]SubscriberInfo
	mu         sync.RWMutex
	done       chan struct{}
	maxEvents  int
	bufferSize int
	history    []Event[T]
	historyMu  sync.RWMutex
}

// SubscriberInfo contains metadata about a subscriber
type SubscriberInfo struct {
	ID      string
	Filters []EventFilter
	Created time.Time
}

// NewBroker creates a new broker with default settings
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithOptions[T](defaultBufferSize, defaultMaxEvents)
}

// NewBrokerWithOptions creates a new broker with custom settings
func NewBrokerWithOptions[T any](channelBufferSize, maxEvents int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]SubscriberInfo),
		done:       make(chan struct{}),
		maxEvents:  maxEvents,
		bufferSize: channelBufferSize,
		history:    make([]Event[T], 0, maxEvents),
	}
}

// Publish publishes an event to all subscribers
func (b *Broker[T]) Publish(eventType EventType, payload T, opts ...PublishOption) {
	select {
	case <-b.done:
		return // Broker is shut down
	default:
	}

	options := &PublishOptions{}
	for _, opt := range opts {
		opt(options)
	}

	event := Event[T]{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
		SessionID: options.SessionID,
	}

	b.addToHistory(event)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, info := range b.subs {
		if !b.shouldSendToSubscriber(event, info.Filters) {
			continue
		}
		select {
		case ch <- event:
		default:
			// Channel is full; drop rather than block the publisher.
			log.Warn("event channel full, dropping event",
				"subscriber", info.ID, "event", event.ID, "type", event.Type)
		}
	}
}

// Subscribe creates a new subscription with optional filters. The
// subscription ends when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context, filters ...EventFilter) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], b.bufferSize)
	b.subs[ch] = SubscriberInfo{
		ID:      uuid.New().String(),
		Filters: filters,
		Created: time.Now(),
	}

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()

	return ch
}

// unsubscribe removes a subscriber
func (b *Broker[T]) unsubscribe(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[ch]; exists {
		delete(b.subs, ch)
		close(ch)
	}
}

// shouldSendToSubscriber checks if an event passes a subscriber's filters
func (b *Broker[T]) shouldSendToSubscriber(event Event[T], filters []EventFilter) bool {
	if len(filters) == 0 {
		return true
	}

	anyEvent := Event[any]{
		ID:        event.ID,
		Type:      event.Type,
		Payload:   event.Payload,
		Timestamp: event.Timestamp,
		SessionID: event.SessionID,
	}

	for _, filter := range filters {
		if !filter(anyEvent) {
			return false
		}
	}
	return true
}

// addToHistory adds an event to the in-memory history ring
func (b *Broker[T]) addToHistory(event Event[T]) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()

	b.history = append(b.history, event)
	if len(b.history) > b.maxEvents {
		copy(b.history, b.history[len(b.history)-b.maxEvents:])
		b.history = b.history[:b.maxEvents]
	}
}

// History returns recent events matching the given filters
func (b *Broker[T]) History(filters ...EventFilter) []Event[T] {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()

	if len(filters) == 0 {
		result := make([]Event[T], len(b.history))
		copy(result, b.history)
		return result
	}

	var result []Event[T]
	for _, event := range b.history {
		if b.shouldSendToSubscriber(event, filters) {
			result = append(result, event)
		}
	}
	return result
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown gracefully shuts down the broker
func (b *Broker[T]) Shutdown() {
	select {
	case <-b.done: // Already closed
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	log.Debug("event broker shut down", "history", len(b.history))
}

// String returns a string representation of the broker
func (b *Broker[T]) String() string {
	b.historyMu.RLock()
	h := len(b.history)
	b.historyMu.RUnlock()
	return fmt.Sprintf("Broker[subscribers=%d, history=%d]", b.SubscriberCount(), h)
}
