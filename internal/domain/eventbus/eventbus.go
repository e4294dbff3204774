// Package eventbus carries domain events between the auth core and its
// collaborators without coupling them at compile time.
package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus wraps the process-local event bus.
type Bus struct {
	bus evbus.Bus
}

// New creates an independent bus. Bootstrap owns the process-wide instance.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers the event to all current subscribers of the topic.
func (b *Bus) Publish(topic string, args ...any) {
	b.bus.Publish(topic, args...)
}

// Subscribe registers a handler for the topic.
func (b *Bus) Subscribe(topic string, fn any) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler executed on its own goroutine.
// transactional serializes deliveries to the handler.
func (b *Bus) SubscribeAsync(topic string, fn any, transactional bool) error {
	return b.bus.SubscribeAsync(topic, fn, transactional)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn any) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all async handlers have drained.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
