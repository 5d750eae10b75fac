// Package events provides a minimal generics-based publish/subscribe mechanism used to broadcast
// fuzzing session lifecycle events.
package events

import (
	"reflect"
	"sync"
)

// EventHandler defines a function type where its input type is the generic type.
type EventHandler[T any] func(T)

// globalEventHandlers describes a mapping of event types to EventHandler objects. These callbacks are
// called any time any EventEmitter publishes an event of that type.
var globalEventHandlers map[string][]any

// globalEventHandlersLock provides thread synchronization when accessing globalEventHandlers.
var globalEventHandlersLock sync.Mutex

// SubscribeAny adds an EventHandler to the list of global EventHandler objects for a given event data
// type. When an event is published, the callback will be triggered with the event data.
// Note: An EventHandler subscribed here will remain throughout program execution. Objects which should
// be freed from memory should not use this method to avoid memory leaks.
func SubscribeAny[T any](callback EventHandler[T]) {
	// Reflect on a nil object to get the generic type.
	eventType := reflect.TypeOf((*T)(nil)).Elem()

	globalEventHandlersLock.Lock()
	defer globalEventHandlersLock.Unlock()

	if globalEventHandlers == nil {
		globalEventHandlers = make(map[string][]any)
	}
	globalEventHandlers[eventType.String()] = append(globalEventHandlers[eventType.String()], callback)
}

// EventEmitter describes a provider which can subscribe EventHandler methods for callback when the
// event type (generic) is published.
type EventEmitter[T any] struct {
	// subscriptions defines the EventHandler methods which should be invoked when a new event is
	// published to this emitter.
	subscriptions []EventHandler[T]
}

// Subscribe adds an EventHandler to be invoked when this emitter publishes an event.
func (e *EventEmitter[T]) Subscribe(callback EventHandler[T]) {
	e.subscriptions = append(e.subscriptions, callback)
}

// Publish emits the provided event by calling every subscribed EventHandler, followed by every global
// handler registered for the event type.
func (e *EventEmitter[T]) Publish(event T) {
	for _, subscription := range e.subscriptions {
		subscription(event)
	}

	eventType := reflect.TypeOf((*T)(nil)).Elem()
	globalEventHandlersLock.Lock()
	handlers := append([]any{}, globalEventHandlers[eventType.String()]...)
	globalEventHandlersLock.Unlock()

	for _, handler := range handlers {
		if callback, ok := handler.(EventHandler[T]); ok {
			callback(event)
		}
	}
}
