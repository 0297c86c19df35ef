package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(b *Bus, eventType EventType) <-chan Event {
	ch := make(chan Event, 16)
	b.Subscribe(eventType, func(ctx context.Context, e Event) {
		ch <- e
	})
	return ch
}

func waitFor(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBus_EmitDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch := collect(bus, EventTypeLevelUp)

	bus.Emit(context.Background(), LevelUpEvent{UserID: 7, OldLevel: 1, NewLevel: 2})

	e := waitFor(t, ch)
	lvl, ok := e.(LevelUpEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), lvl.UserID)
	assert.Equal(t, 2, lvl.NewLevel)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Subscribe(EventTypeScoreRecorded, func(ctx context.Context, e Event) {
		panic("boom")
	})
	ch := collect(bus, EventTypeScoreRecorded)

	bus.Emit(context.Background(), ScoreRecordedEvent{UserID: 1, Score: 10})

	e := waitFor(t, ch)
	assert.Equal(t, EventTypeScoreRecorded, e.Type())
}

func TestTransactionalBus_FlushAndDiscard(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch := collect(bus, EventTypeAchievementUnlocked)

	discarded := NewTransactionalBus(bus)
	discarded.Publish(AchievementUnlockedEvent{UserID: 1, AchievementID: "lost"})
	discarded.Discard()
	assert.Empty(t, discarded.Pending())

	tb := NewTransactionalBus(bus)
	tb.Publish(AchievementUnlockedEvent{UserID: 1, AchievementID: "first_game"})
	assert.Len(t, tb.Pending(), 1)

	// Nothing is delivered before the flush
	select {
	case <-ch:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	tb.Flush()
	e := waitFor(t, ch).(AchievementUnlockedEvent)
	assert.Equal(t, "first_game", e.AchievementID)
	assert.Empty(t, tb.Pending())

	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch := make(chan Event, len(AllEventTypes))
	bus.SubscribeAll(func(ctx context.Context, e Event) { ch <- e })

	bus.Emit(context.Background(), UserCreatedEvent{UserID: 1})
	bus.Emit(context.Background(), LevelUpEvent{UserID: 1})

	seen := map[EventType]bool{}
	seen[waitFor(t, ch).Type()] = true
	seen[waitFor(t, ch).Type()] = true
	assert.True(t, seen[EventTypeUserCreated])
	assert.True(t, seen[EventTypeLevelUp])
}

func TestBus_SubscribeSyncRunsBeforeFlushReturns(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var calls int
	bus.SubscribeSync(EventTypeScoreRecorded, func(ctx context.Context, e Event) { calls++ })
	bus.SubscribeSync(EventTypeScoreRecorded, func(ctx context.Context, e Event) { panic("boom") })
	ch := collect(bus, EventTypeScoreRecorded)

	tb := NewTransactionalBus(bus)
	tb.Publish(ScoreRecordedEvent{UserID: 1, Score: 10})
	assert.Equal(t, 0, calls)

	tb.Flush()
	assert.Equal(t, 1, calls)

	// Async subscribers still get the event
	assert.Equal(t, EventTypeScoreRecorded, waitFor(t, ch).Type())
}
