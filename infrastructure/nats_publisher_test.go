package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"arcade/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "arcade.events.achievement.unlocked", SubjectFor(events.EventTypeAchievementUnlocked))
	assert.Len(t, AllSubjects(), len(events.AllEventTypes))
	assert.Contains(t, AllSubjects(), "arcade.events.level.up")
}

func TestNATSEventForwarder_Forward(t *testing.T) {
	publisher := new(MockMessagePublisher)
	forwarder := NewNATSEventForwarder(publisher)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	forwarder.now = func() time.Time { return fixed }

	var captured []byte
	publisher.On("Publish", mock.Anything, "arcade.events.level.up", mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).([]byte) }).
		Return(nil).
		Once()

	event := events.LevelUpEvent{UserID: 7, DisplayName: "zoe", OldLevel: 2, NewLevel: 3, XP: 450}
	require.NoError(t, forwarder.Forward(context.Background(), event))
	publisher.AssertExpectations(t)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(captured, &envelope))
	assert.Equal(t, "level.up", envelope.Type)
	assert.Equal(t, fixed, envelope.Timestamp)
	_, err := uuid.Parse(envelope.ID)
	assert.NoError(t, err)

	var payload events.LevelUpEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventForwarder_PublishError(t *testing.T) {
	publisher := new(MockMessagePublisher)
	forwarder := NewNATSEventForwarder(publisher)

	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no responders"))

	err := forwarder.Forward(context.Background(), events.UserCreatedEvent{UserID: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event to NATS")
}

func TestNATSEventForwarder_RegisterForwardsBusEvents(t *testing.T) {
	publisher := new(MockMessagePublisher)
	forwarder := NewNATSEventForwarder(publisher)
	bus := events.NewBus()
	forwarder.Register(bus)

	done := make(chan string, 1)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { done <- args.String(1) }).
		Return(nil)

	bus.Emit(context.Background(), events.ScoreRecordedEvent{UserID: 3, ScoreEventID: 9, GameName: "snake", Score: 10})

	select {
	case subject := <-done:
		assert.Equal(t, "arcade.events.score.recorded", subject)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}
}
