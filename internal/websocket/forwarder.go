package websocket

import (
	"github.com/sirupsen/logrus"

	"github.com/haedwin/entity-receiver-go/internal/core/receiver"
)

// EventForwarder bridges the receiver's observer hub onto the websocket hub
// so connected UIs see entity and listener changes as they happen.
type EventForwarder struct {
	hub    *Hub
	core   *receiver.Service
	logger *logrus.Logger

	subscriptions []*receiver.Subscription
}

// NewEventForwarder creates a forwarder; nothing is subscribed until Start.
func NewEventForwarder(hub *Hub, core *receiver.Service, logger *logrus.Logger) *EventForwarder {
	return &EventForwarder{
		hub:    hub,
		core:   core,
		logger: logger,
	}
}

// Start subscribes to all four receiver event kinds.
func (f *EventForwarder) Start() {
	kinds := []receiver.EventKind{
		receiver.EventEntityAdded,
		receiver.EventEntityUpdated,
		receiver.EventEntityRemoved,
		receiver.EventStatusChanged,
	}
	for _, kind := range kinds {
		sub := f.core.Subscribe(kind, receiver.ObserverFunc(f.forward))
		f.subscriptions = append(f.subscriptions, sub)
	}
	f.logger.Info("WebSocket event forwarder started")
}

// Stop removes all subscriptions.
func (f *EventForwarder) Stop() {
	for _, sub := range f.subscriptions {
		sub.Unsubscribe()
	}
	f.subscriptions = nil
}

// forward runs inline on the receiver's goroutines; BroadcastToAll only
// enqueues, so the receive loop is never stalled by slow clients.
func (f *EventForwarder) forward(evt receiver.Event) {
	var record *receiver.EntityRecord
	if evt.Kind == receiver.EventEntityAdded || evt.Kind == receiver.EventEntityUpdated {
		record, _ = f.core.Get(evt.EntityID)
	}
	f.hub.BroadcastToAll(messageForEvent(evt, record))
}

// messageForEvent translates a receiver event into the wire envelope.
func messageForEvent(evt receiver.Event, record *receiver.EntityRecord) Message {
	switch evt.Kind {
	case receiver.EventStatusChanged:
		return NewMessage(MessageTypeListenerStatus, map[string]interface{}{
			"listening": evt.Listening,
		})
	case receiver.EventEntityRemoved:
		return NewMessage(MessageTypeEntityRemoved, map[string]interface{}{
			"entity_id": evt.EntityID,
		})
	default:
		data := map[string]interface{}{
			"entity_id": evt.EntityID,
		}
		if record != nil {
			data["entity"] = record
		}
		msgType := MessageTypeEntityAdded
		if evt.Kind == receiver.EventEntityUpdated {
			msgType = MessageTypeEntityUpdated
		}
		return NewMessage(msgType, data)
	}
}
