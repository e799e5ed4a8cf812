package websocket

import (
	"encoding/json"
	"time"
)

// Message types pushed to websocket clients.
const (
	MessageTypeConnection     = "connection"
	MessageTypeHeartbeat      = "heartbeat"
	MessageTypeEntityAdded    = "entity_added"
	MessageTypeEntityUpdated  = "entity_updated"
	MessageTypeEntityRemoved  = "entity_removed"
	MessageTypeListenerStatus = "listener_status"
)

// Message is the envelope for everything sent over the websocket.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType string, data map[string]interface{}) Message {
	return Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the message for the wire. Serialization of our own
// envelope cannot fail for the payloads we build, so errors degrade to an
// empty object rather than propagating.
func (m Message) ToJSON() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return []byte("{}")
	}
	return data
}
