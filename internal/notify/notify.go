// Package notify provides the in-process broadcast fired after every cart
// mutation. Subscribers (a badge gauge, tests) observe cart changes without
// any coupling to the cart service or its storage.
package notify

import "sync"

// CartChange describes one cart mutation.
type CartChange struct {
	UserID    string
	ItemCount int
	Subtotal  int64
	Cleared   bool
}

// Handler receives cart change notifications. Handlers run synchronously on
// the mutating goroutine and must not block.
type Handler func(CartChange)

// Broadcaster fans cart change notifications out to subscribers.
type Broadcaster struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Broadcaster) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers the change to all current subscribers.
func (b *Broadcaster) Publish(change CartChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(change)
	}
}
