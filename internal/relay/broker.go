package relay

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// Broker is an in-process publish/subscribe fan-out used to push
// appended events to live dashboard streams. Slow subscribers are
// dropped-to rather than blocked-on: a full channel loses the message
// for that subscriber only.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan []byte
	nextID int
	closed bool
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan []byte)}
}

// Subscribe registers a new subscriber. The returned channel is closed
// when the context is cancelled, cleanup is called, or the broker is
// closed. cleanup is idempotent.
func (b *Broker) Subscribe(ctx context.Context) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}

	go func() {
		<-ctx.Done()
		cleanup()
	}()

	return ch, cleanup
}

// Publish delivers payload to every subscriber without blocking.
func (b *Broker) Publish(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Close drops all subscribers and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
