package facade

import (
	"context"

	"github.com/parkminsu/janbu/internal/merge"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/record"
)

// Resync reconciles every collection with the remote store.
//
// Per collection: the local copy and the remote listing are merged
// (local wins), the result is persisted to the cache, and records are
// upserted back to remote so it gains any fields it lacked. A remote
// failure aborts the remaining collections and leaves the facade
// degraded; a completed resync clears degraded mode.
//
// Used by the manual retry action and the reconnect hook.
func (f *Facade) Resync(ctx context.Context) error {
	for _, collection := range f.collectionNames() {
		if err := f.resyncCollection(ctx, collection); err != nil {
			f.setDegraded(true)
			return err
		}
	}
	f.setDegraded(false)
	return nil
}

// PushLocal upserts every locally held record to the remote store.
//
// This is the one-shot push fired on reconnect when full resync is
// disabled: local records reach the remote side, but remote-only
// records are not adopted until the next explicit resync or forced
// load.
func (f *Facade) PushLocal(ctx context.Context) error {
	for _, collection := range f.collectionNames() {
		records, err := f.Load(ctx, collection, false)
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := f.remote.Upsert(ctx, collection, r); err != nil {
				f.setDegraded(true)
				return err
			}
		}
	}
	f.setDegraded(false)
	return nil
}

// collectionNames returns the registered collections in registry order.
func (f *Facade) collectionNames() []string {
	names := make([]string, 0, len(f.collections))
	for _, name := range record.Collections {
		if _, ok := f.collections[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (f *Facade) resyncCollection(ctx context.Context, collection string) error {
	remoteRecords, err := f.remote.List(ctx, collection)
	if err != nil {
		f.logger.Warn("resync fetch failed", "collection", collection, "error", err)
		return err
	}

	cs, err := f.state(collection)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	if err := f.hydrateLocked(ctx, collection, cs); err != nil {
		cs.mu.Unlock()
		return err
	}

	res := merge.Reconcile(collection, cs.records, remoteRecords, f.tombs.IDs(collection))
	cs.records = res.Merged
	err = f.cache.PutCollection(ctx, collection, cs.records)
	pushed := snapshot(cs.records)
	cs.mu.Unlock()
	if err != nil {
		return err
	}

	// Write-back: remote gains records and fields it lacked. Failures
	// here abort the resync; the cache already holds the merged truth.
	for _, r := range pushed {
		if err := f.remote.Upsert(ctx, collection, r); err != nil {
			f.logger.Warn("resync write-back failed", "collection", collection, "id", r.ID(), "error", err)
			return err
		}
	}

	f.logger.Info("collection reconciled",
		"collection", collection,
		"kept", res.Kept, "adopted", res.Adopted, "suppressed", res.Suppressed)
	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicRecords,
		Collection: collection,
		EventType:  "MERGE",
		Data:       len(res.Merged),
	})
	return nil
}
