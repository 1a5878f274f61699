// Package events provides the notification boundary of the ledger core: an
// in-process observer registry with ordered delivery. External pub/sub
// transports consume these records; the core itself never blocks on, or
// fails because of, an observer.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corebooks/corebooks/internal/platform/logging"
)

// EventType tags the kind of state change an event record describes.
type EventType string

const (
	TransactionPosted   EventType = "transaction.posted"
	TransactionDeleted  EventType = "transaction.deleted"
	TransactionRestored EventType = "transaction.restored"
	AssignmentCreated   EventType = "assignment.created"
	AssignmentRemoved   EventType = "assignment.removed"
	PeriodTransitioned  EventType = "period.transitioned"
)

// Event is a discrete record of a successful ledger state change.
type Event struct {
	Type       EventType      `json:"type"`
	EntityID   string         `json:"entityID"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// Observer receives event records. Observers must not assume delivery
// happens before the triggering operation returns to its caller.
type Observer func(Event)

// DefaultHistoryLimit bounds the in-memory event history.
const DefaultHistoryLimit = 1000

type subscription struct {
	id       int
	observer Observer
}

// Registry dispatches events to subscribed observers in subscription order.
// Observer panics are recovered and logged; they never propagate into the
// operation that emitted the event.
type Registry struct {
	mu           sync.RWMutex
	nextID       int
	subscribers  map[EventType][]subscription
	history      []Event
	historyLimit int
}

// NewRegistry creates a registry with the default history bound.
func NewRegistry() *Registry {
	return &Registry{
		subscribers:  make(map[EventType][]subscription),
		historyLimit: DefaultHistoryLimit,
	}
}

// Subscribe registers an observer for an event type and returns a token for
// Unsubscribe.
func (r *Registry) Subscribe(eventType EventType, observer Observer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.subscribers[eventType] = append(r.subscribers[eventType], subscription{id: r.nextID, observer: observer})
	return r.nextID
}

// Unsubscribe removes a previously registered observer. It reports whether
// the token was found.
func (r *Registry) Unsubscribe(eventType EventType, token int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[eventType]
	for i, sub := range subs {
		if sub.id == token {
			r.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit records the event and delivers it to observers in subscription
// order. Emit never returns an error: observer failures are isolated.
func (r *Registry) Emit(ctx context.Context, eventType EventType, entityID string, data map[string]any) Event {
	event := Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	r.mu.Lock()
	r.history = append(r.history, event)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
	subs := make([]subscription, len(r.subscribers[eventType]))
	copy(subs, r.subscribers[eventType])
	r.mu.Unlock()

	logger := logging.FromCtx(ctx)
	for _, sub := range subs {
		r.deliver(logger, sub, event)
	}
	return event
}

func (r *Registry) deliver(logger *slog.Logger, sub subscription, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("event observer panicked",
				slog.String("event_type", string(event.Type)),
				slog.String("entity_id", event.EntityID),
				slog.Any("panic", rec),
			)
		}
	}()
	sub.observer(event)
}

// History returns up to limit recent events, optionally filtered by type.
// A nil eventType returns all types; limit <= 0 means no cap.
func (r *Registry) History(eventType *EventType, limit int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Event, 0, len(r.history))
	for _, e := range r.history {
		if eventType == nil || e.Type == *eventType {
			matched = append(matched, e)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}
