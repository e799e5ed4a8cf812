package receiver

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestHub() *ObserverHub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewObserverHub(log)
}

func TestObserverHubOrdering(t *testing.T) {
	hub := newTestHub()
	var order []string

	hub.Subscribe(EventEntityAdded, ObserverFunc(func(Event) {
		order = append(order, "A")
	}))
	hub.Subscribe(EventEntityAdded, ObserverFunc(func(Event) {
		order = append(order, "B")
	}))

	hub.Publish(Event{Kind: EventEntityAdded, EntityID: "sensor.temp1"})

	assert.Equal(t, []string{"A", "B"}, order)
}

func TestObserverHubKindIsolation(t *testing.T) {
	hub := newTestHub()
	var calls int

	hub.Subscribe(EventEntityAdded, ObserverFunc(func(Event) { calls++ }))
	hub.Publish(Event{Kind: EventEntityUpdated, EntityID: "sensor.temp1"})

	assert.Zero(t, calls)
}

func TestObserverHubUnsubscribeDuringPublish(t *testing.T) {
	hub := newTestHub()
	var aCalls, bCalls int

	var subA *Subscription
	subA = hub.Subscribe(EventEntityAdded, ObserverFunc(func(Event) {
		aCalls++
		subA.Unsubscribe()
	}))
	hub.Subscribe(EventEntityAdded, ObserverFunc(func(Event) {
		bCalls++
	}))

	// A unsubscribes itself mid-publish; B must still run exactly once
	hub.Publish(Event{Kind: EventEntityAdded, EntityID: "sensor.temp1"})
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 1, bCalls)

	// A is gone on the next publish
	hub.Publish(Event{Kind: EventEntityAdded, EntityID: "sensor.temp1"})
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 2, bCalls)
}

func TestObserverHubUnsubscribeIdempotent(t *testing.T) {
	hub := newTestHub()

	sub := hub.Subscribe(EventEntityRemoved, ObserverFunc(func(Event) {}))
	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Zero(t, hub.SubscriberCount(EventEntityRemoved))
}

func TestObserverHubPanicDoesNotStopFanOut(t *testing.T) {
	hub := newTestHub()
	var bCalls int

	hub.Subscribe(EventStatusChanged, ObserverFunc(func(Event) {
		panic("observer blew up")
	}))
	hub.Subscribe(EventStatusChanged, ObserverFunc(func(Event) {
		bCalls++
	}))

	assert.NotPanics(t, func() {
		hub.Publish(Event{Kind: EventStatusChanged, Listening: true})
	})
	assert.Equal(t, 1, bCalls)
}
