package receiver

import "time"

// EntityRecord is the most recently reported value for a single entity.
// State and attribute values are opaque to the receiver; no semantic
// validation is applied beyond the entity_id check in the decoder.
type EntityRecord struct {
	EntityID        string                 `json:"entity_id"`
	State           interface{}            `json:"state"`
	Attributes      map[string]interface{} `json:"attributes"`
	BroadcasterName string                 `json:"broadcaster_name"`
	SourceIP        string                 `json:"source_ip"`
	LastUpdated     time.Time              `json:"last_updated"`
}

// clone returns a copy whose attributes map is independent of the original,
// so callers can hand records out without exposing registry internals.
func (r *EntityRecord) clone() *EntityRecord {
	cp := *r
	cp.Attributes = make(map[string]interface{}, len(r.Attributes))
	for k, v := range r.Attributes {
		cp.Attributes[k] = v
	}
	return &cp
}
