package receiver

import (
	"sync"
	"time"
)

// Registry holds the most recent record per entity id. Mutations come only
// from the receive loop and the sweeper; API and websocket adapters read
// snapshots concurrently, so access is guarded by an RWMutex.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*EntityRecord
	lastSeen map[string]time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*EntityRecord),
		lastSeen: make(map[string]time.Time),
	}
}

// Upsert stores record wholesale, replacing any previous record for the same
// entity id. It returns true when the entity was not present before, so the
// caller can fire the correct event kind.
func (r *Registry) Upsert(record *EntityRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.entries[record.EntityID]
	r.entries[record.EntityID] = record
	r.lastSeen[record.EntityID] = record.LastUpdated
	return !exists
}

// Get returns a copy of the current record for entityID, or false when the
// entity is not tracked.
func (r *Registry) Get(entityID string) (*EntityRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.entries[entityID]
	if !ok {
		return nil, false
	}
	return record.clone(), true
}

// ListAll returns a snapshot of all tracked entities. Mutating the returned
// map or the records it contains does not affect registry state.
func (r *Registry) ListAll() map[string]*EntityRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]*EntityRecord, len(r.entries))
	for id, record := range r.entries {
		snapshot[id] = record.clone()
	}
	return snapshot
}

// Len returns the number of tracked entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes every entity whose last update precedes now-staleness and
// returns the removed ids. This is the only operation that removes entries.
func (r *Registry) Sweep(now time.Time, staleness time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-staleness)
	var removed []string
	for id, seen := range r.lastSeen {
		if seen.Before(cutoff) {
			delete(r.entries, id)
			delete(r.lastSeen, id)
			removed = append(removed, id)
		}
	}
	return removed
}
