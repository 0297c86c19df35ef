package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated         EventType = "user.created"
	EventTypeScoreRecorded       EventType = "score.recorded"
	EventTypeLevelUp             EventType = "level.up"
	EventTypeAchievementUnlocked EventType = "achievement.unlocked"
)

// AllEventTypes lists every event type, for subscribers that want all of them
var AllEventTypes = []EventType{
	EventTypeUserCreated,
	EventTypeScoreRecorded,
	EventTypeLevelUp,
	EventTypeAchievementUnlocked,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user registration
type UserCreatedEvent struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// ScoreRecordedEvent represents an appended score event
type ScoreRecordedEvent struct {
	UserID       int64  `json:"user_id"`
	ScoreEventID int64  `json:"score_event_id"`
	GameName     string `json:"game_name"`
	Score        int64  `json:"score"`
	GamesPlayed  int64  `json:"games_played"`
}

func (e ScoreRecordedEvent) Type() EventType {
	return EventTypeScoreRecorded
}

// LevelUpEvent is emitted once per level gained
type LevelUpEvent struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	OldLevel    int    `json:"old_level"`
	NewLevel    int    `json:"new_level"`
	XP          int64  `json:"xp"`
}

func (e LevelUpEvent) Type() EventType {
	return EventTypeLevelUp
}

// AchievementUnlockedEvent is emitted once per newly created unlock record
type AchievementUnlockedEvent struct {
	UserID          int64  `json:"user_id"`
	DisplayName     string `json:"display_name"`
	AchievementID   string `json:"achievement_id"`
	AchievementName string `json:"achievement_name"`
	Icon            string `json:"icon"`
	XPReward        int64  `json:"xp_reward"`
}

func (e AchievementUnlockedEvent) Type() EventType {
	return EventTypeAchievementUnlocked
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu           sync.RWMutex
	handlers     map[EventType][]Handler
	syncHandlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers:     make(map[EventType][]Handler),
		syncHandlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeSync adds a handler that runs on the emitting goroutine. Emit (and
// so TransactionalBus.Flush) returns only after it has finished. Sync
// handlers must be quick and must not block.
func (b *Bus) SubscribeSync(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.syncHandlers[eventType] = append(b.syncHandlers[eventType], handler)
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range AllEventTypes {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	syncHandlers := make([]Handler, len(b.syncHandlers[event.Type()]))
	copy(syncHandlers, b.syncHandlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range syncHandlers {
		runSync(ctx, event, handler)
	}

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

func runSync(ctx context.Context, event Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"panic":     r,
			}).Error("Sync event handler panicked")
		}
	}()
	h(ctx, event)
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits. Rolled-back work never reaches subscribers.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events stashed so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	// Subscribers run detached from the request that produced the events
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
