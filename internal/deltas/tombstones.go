package deltas

import "sync"

// Tombstones remembers deleted record ids per collection so late or
// duplicate deltas cannot resurrect a deleted record.
//
// Tombstones live for the process lifetime; a restart heals through the
// next full resync, which never re-adopts locally deleted records
// because the delete already propagated or will be retried. A fresh
// local creation clears the id's tombstone explicitly (the facade does
// this on Save).
//
// Thread-safety: all methods are safe for concurrent use. The set is
// owned by the delta consumers and read by the merge engine.
type Tombstones struct {
	mu  sync.RWMutex
	ids map[string]map[string]struct{} // collection -> id set
}

// NewTombstones creates an empty tombstone set.
func NewTombstones() *Tombstones {
	return &Tombstones{ids: make(map[string]map[string]struct{})}
}

// Add registers id as deleted in the collection.
func (t *Tombstones) Add(collection, id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.ids[collection]
	if !ok {
		set = make(map[string]struct{})
		t.ids[collection] = set
	}
	set[id] = struct{}{}
}

// Has reports whether id is tombstoned in the collection.
func (t *Tombstones) Has(collection, id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.ids[collection][id]
	return ok
}

// Clear removes id's tombstone, allowing an explicit re-creation.
func (t *Tombstones) Clear(collection, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ids[collection], id)
}

// IDs returns a snapshot of the tombstoned ids for a collection.
func (t *Tombstones) IDs(collection string) map[string]struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]struct{}, len(t.ids[collection]))
	for id := range t.ids[collection] {
		out[id] = struct{}{}
	}
	return out
}
