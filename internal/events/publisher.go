package events

import (
	"log/slog"
	"sync"
)

// Bus fans events out to channel-based subscribers and in-process handlers.
// Delivery to channel subscribers is best-effort and non-blocking: a slow
// or full subscriber is skipped rather than stalling the publisher.
type Bus interface {
	// Publish routes a task-scoped event to TaskChannel(event.TaskID) and to
	// GlobalChannel, or a non-task event to BroadcastChannel. It also invokes
	// every in-process handler registered for event.Type.
	Publish(event Event)
	// Subscribe returns a channel receiving events published to channel, and
	// an unsubscribe function that closes it and stops delivery.
	Subscribe(channel string) (<-chan Event, func())
	// On registers an in-process handler for a specific event type. Handler
	// panics/errors are recovered and logged, never propagated to the caller
	// of Publish.
	On(eventType Type, handler func(Event))
	// Close shuts down the bus and closes all subscriber channels.
	Close()
}

// MemoryBus is an in-memory, in-process implementation of Bus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	handlers    map[Type][]func(Event)
	bufferSize  int
	closed      bool
	logger      *slog.Logger
}

// Option configures a MemoryBus.
type Option func(*MemoryBus)

// WithBufferSize sets the per-subscriber channel buffer size (default 100).
func WithBufferSize(size int) Option {
	return func(b *MemoryBus) { b.bufferSize = size }
}

// WithLogger sets the logger used for swallowed handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(b *MemoryBus) { b.logger = logger }
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus(opts ...Option) *MemoryBus {
	b := &MemoryBus{
		subscribers: make(map[string][]chan Event),
		handlers:    make(map[Type][]func(Event)),
		bufferSize:  100,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish implements Bus.
func (b *MemoryBus) Publish(event Event) {
	b.mu.RLock()
	closed := b.closed
	handlers := append([]func(Event){}, b.handlers[event.Type]...)
	b.mu.RUnlock()

	if closed {
		return
	}

	if event.TaskID != "" {
		b.deliver(TaskChannel(event.TaskID), event)
		b.deliver(GlobalChannel, event)
	} else {
		b.deliver(BroadcastChannel, event)
	}

	for _, h := range handlers {
		b.invoke(h, event)
	}
}

// invoke calls a handler, recovering and logging any panic so a single bad
// handler never breaks the engine.
func (b *MemoryBus) invoke(handler func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", event.Type, "recover", r)
		}
	}()
	handler(event)
}

// deliver sends event to every subscriber of channel, skipping full buffers.
// The read lock is held across the (non-blocking) sends so that unsubscribe
// and Close cannot close a channel while it is being sent to.
func (b *MemoryBus) deliver(channel string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(channel string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[channel] = append(b.subscribers[channel], ch)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { b.unsubscribe(channel, ch) })
	}
	return ch, unsubscribe
}

func (b *MemoryBus) unsubscribe(channel string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[channel]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(b.subscribers[channel]) == 0 {
		delete(b.subscribers, channel)
	}
}

// On implements Bus.
func (b *MemoryBus) On(eventType Type, handler func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Close implements Bus.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for channel, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, channel)
	}
}

// SubscriberCount returns the number of subscribers on a channel, for tests.
func (b *MemoryBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}
