package domainevent

import "sync"

// InProcessBus is a synchronous in-process event bus. Publish dispatches
// to matching handlers immediately on the caller's goroutine; there is no
// internal queue or worker.
type InProcessBus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	closed      bool
}

// NewInProcessBus constructs an empty bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Publish dispatches an event to its typed handlers, then to handlers
// subscribed to everything. A closed bus silently drops events.
func (b *InProcessBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, h := range b.handlers[event.EventType()] {
		h(event)
	}
	for _, h := range b.allHandlers {
		h(event)
	}
}

// Subscribe registers a handler for one event type.
func (b *InProcessBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *InProcessBus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Close marks the bus closed; subsequent Publish calls are no-ops.
func (b *InProcessBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

var _ Bus = (*InProcessBus)(nil)
