// Package remote talks to the backend data store.
//
// The backend exposes per-collection listing (ordered by updated_at),
// upsert-by-id, delete-by-id, a lightweight health probe, and one change
// subscription per collection. All failures that stem from the network
// or the backend being down are classified as NETWORK_ERROR so callers
// can degrade to the local cache instead of surfacing them.
package remote

import (
	"context"

	"github.com/parkminsu/janbu/internal/record"
)

// EventType is the kind of change a delta describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Delta is one realtime change notification for a single record.
//
// INSERT and UPDATE carry New; DELETE carries Old (at minimum its id).
// Delivery is at-least-once: consumers must apply deltas idempotently.
type Delta struct {
	Collection string        `json:"collection"`
	Type       EventType     `json:"eventType"`
	New        record.Fields `json:"new,omitempty"`
	Old        record.Fields `json:"old,omitempty"`
}

// ID returns the id of the record the delta refers to.
func (d Delta) ID() string {
	if d.New != nil && d.New.ID() != "" {
		return d.New.ID()
	}
	if d.Old != nil {
		return d.Old.ID()
	}
	return ""
}

// Client is the remote store API used by the sync core.
type Client interface {
	// List returns every record in a collection, ordered by updated_at.
	List(ctx context.Context, collection string) ([]record.Fields, error)

	// Upsert creates or replaces a record by id.
	Upsert(ctx context.Context, collection string, fields record.Fields) error

	// Delete removes a record by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection string, id string) error

	// Probe performs a lightweight health check. A nil return means the
	// remote store is reachable.
	Probe(ctx context.Context) error

	// Subscribe opens the change subscription for a collection.
	//
	// The returned channel delivers deltas in arrival order and is
	// closed when the subscription drops or ctx is cancelled. No replay
	// is attempted on drop; staleness heals via the next full resync.
	Subscribe(ctx context.Context, collection string) (<-chan Delta, error)
}
