// Package events fans session lifecycle events out to in-process observers
// such as the websocket and SSE feeds. Only metadata travels here, never
// media or attendee credentials.
package events

import (
	"sync"
	"time"
)

// Event types published by the registry and the transcription coordinator.
const (
	TypeSessionCreated        = "session.created"
	TypeAttendeeJoined        = "attendee.joined"
	TypeTranscriptionStarted  = "transcription.started"
	TypeTranscriptionDegraded = "transcription.degraded"
	TypeTranscriptionStopped  = "transcription.stopped"
	TypeSessionRemoved        = "session.removed"
)

// Removal reasons carried by TypeSessionRemoved events.
const (
	ReasonManual  = "manual"
	ReasonExpired = "expired"
)

// Event is one session lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	MeetingID string    `json:"meetingId"`
	UserID    string    `json:"userId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const subscriberBuffer = 16

// Broker is a minimal in-process publish/subscribe hub. Publishing never
// blocks; events to a subscriber whose buffer is full are dropped.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new observer. The returned cancel function must be
// called when the observer goes away; after cancel the channel is closed.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that can accept it without
// blocking. A nil broker is a no-op so services can run without a feed.
func (b *Broker) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop rather than stall publishers.
		}
	}
}
