// Package pubsub is the topic bus between the sync core and its
// consumers (the rendering layer, the offline indicator, the
// non-blocking error channel).
//
// Publishing never blocks: a subscriber that cannot keep up loses
// events rather than stalling a mutation. Consumers that need complete
// state re-read the canonical collections after a notification, so a
// dropped event only delays a re-render, it never loses data.
package pubsub

import (
	"sync"
)

// Topics published by the sync core.
const (
	// TopicRecords carries {collection, eventType, data} notifications
	// after every applied mutation, merge, or delta.
	TopicRecords = "records"

	// TopicStatus carries connectivity / degraded-mode changes.
	TopicStatus = "status"

	// TopicErrors carries non-fatal internal failures (remote write
	// failures, notification failures) for non-blocking display.
	TopicErrors = "errors"

	// TopicGrades carries customer tier upgrade events.
	TopicGrades = "grades"
)

// Event is one bus notification.
type Event struct {
	Topic      string `json:"topic"`
	Collection string `json:"collection,omitempty"`
	EventType  string `json:"eventType,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// subscriber is one receiving channel on a topic.
type subscriber struct {
	topic string
	ch    chan Event
}

// Bus fans events out to topic subscribers.
//
// Thread-safety: all methods are safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs []*subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a channel on a topic.
//
// The returned cancel function removes the subscription and closes the
// channel. buffer bounds how far the subscriber may lag before events
// are dropped for it.
func (b *Bus) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{topic: topic, ch: make(chan Event, buffer)}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(sub.ch)
				return
			}
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of its topic.
// Never blocks: lagging subscribers miss the event.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.topic != ev.Topic {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}
