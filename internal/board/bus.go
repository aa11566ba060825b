package board

import (
	"log"
	"sync"
	"time"
)

// Event is one of SelectionChanged, DataReady or ZoomRequested. Subscribers
// type-switch on the payload.
type Event interface{}

// SelectionChanged carries the full selection after a change, in insertion
// order.
type SelectionChanged struct {
	States []string
}

// DataReady signals that a refresh cycle finished and the story list was
// replaced.
type DataReady struct {
	StoryCount int
	At         time.Time
}

// ZoomRequested asks the map view to focus a single state.
type ZoomRequested struct {
	StateID   string
	StateName string
}

// Bus is a small publish/subscribe channel fan-out. Publish never blocks; a
// subscriber that falls behind loses events.
type Bus struct {
	mu   sync.Mutex
	subs []chan Event
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers an event to every subscriber. Full subscriber channels
// are skipped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := append([]chan Event(nil), b.subs...)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			log.Printf("event bus: dropped %T for slow subscriber", ev)
		}
	}
}

// Close closes all subscriber channels. Publish must not be called after
// Close.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}
