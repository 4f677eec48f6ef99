// Package reload provides the typed broadcast channel that carries reload
// commands from the filesystem watcher to every connected browser session.
package reload

import "sync"

// Command instructs connected clients how to refresh.
type Command int

const (
	// FullReload causes the browser to re-navigate the current URL.
	FullReload Command = iota
	// StyleReload causes the browser to swap stylesheets in place.
	StyleReload
)

// Token returns the exact wire payload sent to clients.
func (c Command) Token() string {
	switch c {
	case StyleReload:
		return "reload-css"
	default:
		return "reload"
	}
}

// String returns the string representation of the Command
func (c Command) String() string {
	switch c {
	case FullReload:
		return "full-reload"
	case StyleReload:
		return "style-reload"
	default:
		return "unknown"
	}
}

// queueCapacity bounds each subscriber's queue. A subscriber that falls this
// far behind starts losing commands rather than stalling the watcher.
const queueCapacity = 16

// Bus is a lossy, bounded, multi-consumer fan-out channel. Publish never
// blocks; late subscribers do not see historical commands.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// Subscriber is one consumer's view of the Bus.
type Subscriber struct {
	bus *Bus
	ch  chan Command
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new consumer with a fresh, empty queue.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		bus: b,
		ch:  make(chan Command, queueCapacity),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish delivers cmd to every live subscriber. Subscribers whose queue is
// saturated are skipped silently.
func (b *Bus) Publish(cmd Command) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- cmd:
		default:
			// Slow consumer, drop rather than block the watcher thread.
		}
	}
}

// ActiveCount returns the number of live subscribers.
func (b *Bus) ActiveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// C returns the receive channel. It is closed by Close.
func (s *Subscriber) C() <-chan Command {
	return s.ch
}

// Close removes the subscriber from the bus and closes its channel.
// Safe to call once; commands published afterwards are not delivered.
func (s *Subscriber) Close() {
	s.bus.mu.Lock()
	if _, ok := s.bus.subs[s]; ok {
		delete(s.bus.subs, s)
		close(s.ch)
	}
	s.bus.mu.Unlock()
}
