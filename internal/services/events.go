package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventName identifies a kind of change notification
type EventName string

const (
	ImagesListDidChange   EventName = "images_list_did_change"
	ProfileImageDidChange EventName = "profile_image_did_change"
	SessionStateDidChange EventName = "session_state_did_change"
)

const subscriberBuffer = 16

// Event is a change notification published on the bus
type Event struct {
	ID        string    `json:"id"`
	Name      EventName `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	URL       string    `json:"url,omitempty"`
	State     State     `json:"state,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(name EventName) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      name,
		Timestamp: time.Now(),
	}
}

// EventBus fans change notifications out to subscribers
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[EventName]map[int]chan Event
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[EventName]map[int]chan Event)}
}

// Subscribe returns a channel receiving events with the given names and a func that
// unsubscribes and closes the channel
func (b *EventBus) Subscribe(names ...EventName) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	for _, name := range names {
		if b.subs[name] == nil {
			b.subs[name] = make(map[int]chan Event)
		}
		b.subs[name][id] = ch
	}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			for _, name := range names {
				delete(b.subs[name], id)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers the event to every subscriber; a subscriber whose buffer is full misses it
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Name] {
		select {
		case ch <- e:
		default:
			log.Warn().Str("event", string(e.Name)).Msg("Dropped event for slow subscriber")
		}
	}
}
