package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testEvent is a basic event type used for testing event emitters.
type testEvent struct {
	value int
}

// TestEventEmitter verifies locally subscribed handlers observe published events in order.
func TestEventEmitter(t *testing.T) {
	var emitter EventEmitter[testEvent]
	var observed []int
	emitter.Subscribe(func(event testEvent) {
		observed = append(observed, event.value)
	})

	emitter.Publish(testEvent{value: 1})
	emitter.Publish(testEvent{value: 2})
	assert.Equal(t, []int{1, 2}, observed)
}

// TestGlobalSubscription verifies globally subscribed handlers observe events from any emitter of the
// matching type.
func TestGlobalSubscription(t *testing.T) {
	var observed []int
	SubscribeAny(func(event testEvent) {
		observed = append(observed, event.value)
	})

	var first, second EventEmitter[testEvent]
	first.Publish(testEvent{value: 10})
	second.Publish(testEvent{value: 20})
	assert.Contains(t, observed, 10)
	assert.Contains(t, observed, 20)
}
