package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelcastro95/chime-backend/internal/service/events"
)

func TestPublishReachesSubscriber(t *testing.T) {
	broker := events.NewBroker()
	ch, cancel := broker.Subscribe()
	defer cancel()

	broker.Publish(events.Event{Type: events.TypeSessionCreated, MeetingID: "m1"})

	select {
	case evt := <-ch:
		assert.Equal(t, events.TypeSessionCreated, evt.Type)
		assert.Equal(t, "m1", evt.MeetingID)
		assert.False(t, evt.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event was never delivered")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	broker := events.NewBroker()
	ch, cancel := broker.Subscribe()

	cancel()
	_, ok := <-ch
	require.False(t, ok)

	// A second cancel and further publishes are harmless.
	cancel()
	broker.Publish(events.Event{Type: events.TypeSessionRemoved, MeetingID: "m1"})
}

func TestSlowSubscriberNeverBlocksPublish(t *testing.T) {
	broker := events.NewBroker()
	_, cancel := broker.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more events than the subscriber buffer holds.
		for i := 0; i < 200; i++ {
			broker.Publish(events.Event{Type: events.TypeAttendeeJoined, MeetingID: "m1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestNilBrokerPublishIsNoop(t *testing.T) {
	var broker *events.Broker
	broker.Publish(events.Event{Type: events.TypeSessionCreated})
}
