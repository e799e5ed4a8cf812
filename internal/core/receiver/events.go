package receiver

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventKind identifies which subscriber list an event fans out to.
type EventKind string

const (
	EventEntityAdded   EventKind = "entity_added"
	EventEntityUpdated EventKind = "entity_updated"
	EventEntityRemoved EventKind = "entity_removed"
	EventStatusChanged EventKind = "listener_status"
)

// Event is delivered synchronously to observers. EntityID is set for entity
// events; Listening is meaningful only for EventStatusChanged.
type Event struct {
	Kind      EventKind
	EntityID  string
	Listening bool
}

// Observer receives events from the hub. Callbacks run inline on the
// goroutine that publishes, so they are expected to be fast.
type Observer interface {
	OnReceiverEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnReceiverEvent(evt Event) { f(evt) }

// Subscription is the handle returned by Subscribe; Unsubscribe removes the
// observer and is safe to call from inside a callback.
type Subscription struct {
	hub  *ObserverHub
	kind EventKind
	id   uint64
}

// Unsubscribe removes the subscription from the hub. Calling it more than
// once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.hub.unsubscribe(s.kind, s.id)
}

type subscriber struct {
	id  uint64
	obs Observer
}

// ObserverHub fans events out to subscribers, per kind, in subscription
// order. A failing observer never interrupts the remaining observers or the
// publisher.
type ObserverHub struct {
	mu     sync.Mutex
	logger *logrus.Logger
	nextID uint64
	subs   map[EventKind][]subscriber
}

// NewObserverHub creates an empty hub.
func NewObserverHub(logger *logrus.Logger) *ObserverHub {
	return &ObserverHub{
		logger: logger,
		subs:   make(map[EventKind][]subscriber),
	}
}

// Subscribe registers obs for events of the given kind.
func (h *ObserverHub) Subscribe(kind EventKind, obs Observer) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.subs[kind] = append(h.subs[kind], subscriber{id: h.nextID, obs: obs})
	return &Subscription{hub: h, kind: kind, id: h.nextID}
}

func (h *ObserverHub) unsubscribe(kind EventKind, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[kind]
	for i, sub := range list {
		if sub.id == id {
			h.subs[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish invokes every current subscriber for evt.Kind synchronously, in
// subscription order. The subscriber list is snapshotted first so observers
// may unsubscribe themselves or others mid-publish without skipping or
// duplicating invocations.
func (h *ObserverHub) Publish(evt Event) {
	h.mu.Lock()
	snapshot := make([]subscriber, len(h.subs[evt.Kind]))
	copy(snapshot, h.subs[evt.Kind])
	h.mu.Unlock()

	for _, sub := range snapshot {
		h.invoke(sub, evt)
	}
}

func (h *ObserverHub) invoke(sub subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithFields(logrus.Fields{
				"event_kind": evt.Kind,
				"entity_id":  evt.EntityID,
				"panic":      r,
			}).Error("Observer callback panicked")
		}
	}()
	sub.obs.OnReceiverEvent(evt)
}

// SubscriberCount returns the number of subscribers for kind.
func (h *ObserverHub) SubscriberCount(kind EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[kind])
}
