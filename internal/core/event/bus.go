package event

import (
	"reflect"
	"sync"
)

type envelope struct {
	key reflect.Type
	ev  any
}

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1, in emission order. SwapBuffers is called at tick start by
// EventDispatchSystem. Emit may be called from any goroutine.
type Bus struct {
	mu       sync.Mutex
	front    []envelope
	back     []envelope
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]envelope, 0, 16),
		back:     make([]envelope, 0, 16),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer (readable next tick).
func Emit[T any](b *Bus, event T) {
	b.mu.Lock()
	b.back = append(b.back, envelope{key: reflect.TypeOf((*T)(nil)).Elem(), ev: event})
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.mu.Lock()
	b.front, b.back = b.back, b.front[:0]
	b.mu.Unlock()
}

// Pending is the number of events waiting for the next swap.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// DispatchAll delivers the front buffer to subscribed handlers and returns
// the number of events delivered. Handlers may Emit; those events land in
// the back buffer.
func (b *Bus) DispatchAll() int {
	for _, env := range b.front {
		b.mu.Lock()
		handlers := b.handlers[env.key]
		b.mu.Unlock()
		for _, h := range handlers {
			h(env.ev)
		}
	}
	return len(b.front)
}
