package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe event bus with namespace filtering.
// Delivery is non-blocking: events published to a full subscriber buffer are
// dropped rather than stalling the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*sub
	next int
}

type sub struct {
	namespace string
	ch        chan Event
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*sub),
	}
}

// Publish sends an event to every subscriber whose namespace is a prefix of
// event.Kind.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if strings.HasPrefix(evt.Kind, s.namespace) {
			select {
			case s.ch <- evt:
			default:
				// Subscriber buffer full, drop.
			}
		}
	}
}

// Subscribe returns a channel that receives events matching the given
// namespace prefix, plus an unsubscribe function. bufSize controls the
// channel buffer.
func (b *Bus) Subscribe(namespace string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &sub{namespace: namespace, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
