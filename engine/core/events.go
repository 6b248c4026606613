package core

import "sync"

// EventCode identifies an event stream. Applications define their own
// codes starting at EventCodeUser.
type EventCode int

const (
	// EventCodeQuit asks the engine to stop on the next frame.
	EventCodeQuit EventCode = iota + 1
	// EventCodeWindowResized fires with Data = [2]uint32{width, height}.
	EventCodeWindowResized
	// EventCodeAssetReloaded fires once per invalidated asset after a
	// hot reload, with Data = the asset id.
	EventCodeAssetReloaded

	EventCodeUser EventCode = 256
)

// Event is a code plus an arbitrary payload.
type Event struct {
	Code   EventCode
	Sender interface{}
	Data   interface{}
}

// EventHandler returns true when it consumed the event; consumed events
// do not propagate to later listeners.
type EventHandler func(ev Event) bool

type eventListener struct {
	owner   interface{}
	handler EventHandler
}

// EventBus is a synchronous publish/subscribe dispatcher. Handlers run
// on the firing goroutine in registration order. Registration and
// firing are safe to mix across goroutines.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[EventCode][]eventListener
}

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventCode][]eventListener),
	}
}

// Register adds a handler for a code. One registration per (code,
// owner) pair; a duplicate is rejected.
func (b *EventBus) Register(code EventCode, owner interface{}, handler EventHandler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners[code] {
		if l.owner == owner {
			LogWarn("event bus: duplicate listener for code %d", code)
			return false
		}
	}
	b.listeners[code] = append(b.listeners[code], eventListener{owner: owner, handler: handler})
	return true
}

// Unregister removes the owner's handler for a code.
func (b *EventBus) Unregister(code EventCode, owner interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bucket := b.listeners[code]
	for i, l := range bucket {
		if l.owner == owner {
			b.listeners[code] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

// Fire dispatches the event. Returns true when some handler consumed
// it.
func (b *EventBus) Fire(ev Event) bool {
	b.mu.RLock()
	bucket := make([]eventListener, len(b.listeners[ev.Code]))
	copy(bucket, b.listeners[ev.Code])
	b.mu.RUnlock()

	for _, l := range bucket {
		if l.handler(ev) {
			return true
		}
	}
	return false
}
