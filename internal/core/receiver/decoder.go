package receiver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const defaultBroadcasterName = "Unknown"

// DecodeError indicates a datagram that could not be parsed at all:
// invalid UTF-8 or invalid JSON. The datagram is logged and discarded.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode datagram: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode datagram: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError indicates a structurally valid message whose entity_id is
// missing, not a string, or blank. The datagram is logged and discarded.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}

// decodeDatagram parses a raw datagram payload into a normalized
// EntityRecord. sourceIP is the network-layer origin of the datagram, not
// anything carried in the payload.
func decodeDatagram(payload []byte, sourceIP string, now time.Time) (*EntityRecord, error) {
	if !utf8.Valid(payload) {
		return nil, &DecodeError{Reason: "payload is not valid UTF-8"}
	}

	var message map[string]interface{}
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, &DecodeError{Reason: "payload is not a JSON object", Err: err}
	}

	rawID, ok := message["entity_id"]
	if !ok {
		return nil, &ValidationError{Reason: "entity_id is missing"}
	}
	entityID, ok := rawID.(string)
	if !ok {
		return nil, &ValidationError{Reason: "entity_id is not a string"}
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, &ValidationError{Reason: "entity_id is empty"}
	}

	attributes, _ := message["attributes"].(map[string]interface{})
	if attributes == nil {
		attributes = map[string]interface{}{}
	}

	broadcaster, ok := message["broadcaster_name"].(string)
	if !ok || broadcaster == "" {
		broadcaster = defaultBroadcasterName
	}

	return &EntityRecord{
		EntityID:        entityID,
		State:           message["state"],
		Attributes:      attributes,
		BroadcasterName: broadcaster,
		SourceIP:        sourceIP,
		LastUpdated:     now,
	}, nil
}
