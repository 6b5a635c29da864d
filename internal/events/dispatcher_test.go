package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/events"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var received []events.Event
	dispatcher.Subscribe(events.EventComplaintRegistered, func(ctx context.Context, e events.Event) error {
		received = append(received, e)
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:          "evt-1",
		Type:        events.EventComplaintRegistered,
		ComplaintID: "cmp-1",
	})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "cmp-1", received[0].ComplaintID)
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(events.EventComplaintDeleted, func(ctx context.Context, e events.Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventComplaintRegistered}))
	assert.False(t, called)
}

func TestDispatcherContinuesPastHandlerError(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	dispatcher.Subscribe(events.EventComplaintRegistered, func(ctx context.Context, e events.Event) error {
		return errors.New("handler failed")
	})
	second := false
	dispatcher.Subscribe(events.EventComplaintRegistered, func(ctx context.Context, e events.Event) error {
		second = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventComplaintRegistered}))
	assert.True(t, second)
}
