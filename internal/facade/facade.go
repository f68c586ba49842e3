// Package facade is the single entry point for reading and mutating
// the canonical record collections.
//
// The facade exclusively owns the in-memory collections the rendering
// layer consumes. Every mutation - local writes, merges, realtime
// deltas - flows through it, which is the serialization point that
// prevents lost updates: no two mutations to one collection interleave,
// while different collections proceed concurrently.
//
// Writes are dual: the local cache write is guaranteed, the remote
// upsert is best-effort. Only the facade reports degraded/offline
// status upward.
package facade

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/parkminsu/janbu/internal/cache"
	"github.com/parkminsu/janbu/internal/deltas"
	"github.com/parkminsu/janbu/internal/errs"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/record"
	"github.com/parkminsu/janbu/internal/remote"
)

// SaveResult reports where a save landed.
type SaveResult struct {
	// Cached is true once the record is durably in the local cache.
	// A save that returns at all has Cached true.
	Cached bool

	// Synced is true when the remote upsert also succeeded. False means
	// the save degraded to cache-only; the record reaches the remote on
	// the next reconnect push.
	Synced bool
}

// collectionState is the canonical in-memory copy of one collection.
type collectionState struct {
	mu      sync.Mutex
	records []record.Fields
	loaded  bool
}

// Facade is the storage facade.
type Facade struct {
	cache  *cache.Store
	remote remote.Client
	bus    *pubsub.Bus
	tombs  *deltas.Tombstones
	idgen  record.IDGenerator
	now    func() time.Time
	logger *slog.Logger

	collections map[string]*collectionState

	degradedMu sync.Mutex
	degraded   bool
}

// New creates a facade over the given cache and remote client.
// idgen and now may be nil (UUIDv7 and time.Now are used).
func New(c *cache.Store, r remote.Client, bus *pubsub.Bus, tombs *deltas.Tombstones, idgen record.IDGenerator, now func() time.Time, logger *slog.Logger) *Facade {
	if idgen == nil {
		idgen = record.UUIDv7Generator{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	cols := make(map[string]*collectionState, len(record.Collections))
	for _, name := range record.Collections {
		cols[name] = &collectionState{}
	}
	return &Facade{
		cache:       c,
		remote:      r,
		bus:         bus,
		tombs:       tombs,
		idgen:       idgen,
		now:         now,
		logger:      logger,
		collections: cols,
	}
}

func (f *Facade) state(collection string) (*collectionState, error) {
	cs, ok := f.collections[collection]
	if !ok {
		return nil, errs.NotFound(collection, "")
	}
	return cs, nil
}

// hydrateLocked fills cs.records from the cache on first touch so
// every mutation starts from the durable snapshot. Callers hold cs.mu.
// A parse error recovers as empty; resync repopulates.
func (f *Facade) hydrateLocked(ctx context.Context, collection string, cs *collectionState) error {
	if cs.loaded {
		return nil
	}
	cached, err := f.cache.GetCollection(ctx, collection)
	if err != nil && !errs.IsParse(err) {
		return err
	}
	cs.records = cached
	cs.loaded = true
	return nil
}

// snapshot returns a copy of the collection slice so callers can read
// without holding the collection lock.
func snapshot(records []record.Fields) []record.Fields {
	out := make([]record.Fields, len(records))
	copy(out, records)
	return out
}

// Degraded reports whether the facade is operating offline.
func (f *Facade) Degraded() bool {
	f.degradedMu.Lock()
	defer f.degradedMu.Unlock()
	return f.degraded
}

// setDegraded flips the degraded flag and publishes a status event on
// every change.
func (f *Facade) setDegraded(on bool) {
	f.degradedMu.Lock()
	changed := f.degraded != on
	f.degraded = on
	f.degradedMu.Unlock()

	if changed {
		mode := "online"
		if on {
			mode = "offline"
		}
		f.logger.Info("storage mode changed", "mode", mode)
		f.bus.Publish(pubsub.Event{Topic: pubsub.TopicStatus, EventType: mode})
	}
}

// reportError publishes a non-fatal failure to the error topic.
func (f *Facade) reportError(collection string, err error) {
	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicErrors,
		Collection: collection,
		Data:       err.Error(),
	})
}

// Load returns the collection, reading through the cache.
//
// The canonical in-memory copy is served once populated. When it is
// empty (first access) the cache is consulted; when the cache is also
// empty, or forceRefresh is set, the remote store is fetched and
// overwrites the cache. A remote failure on a forced load degrades to
// the cached copy instead of failing.
func (f *Facade) Load(ctx context.Context, collection string, forceRefresh bool) ([]record.Fields, error) {
	cs, err := f.state(collection)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := f.hydrateLocked(ctx, collection, cs); err != nil {
		return nil, err
	}

	if !forceRefresh && len(cs.records) > 0 {
		return snapshot(cs.records), nil
	}

	fetched, err := f.remote.List(ctx, collection)
	if err != nil {
		f.logger.Warn("remote fetch failed, serving cache", "collection", collection, "error", err)
		f.setDegraded(true)
		return snapshot(cs.records), nil
	}

	cs.records = fetched
	if err := f.cache.PutCollection(ctx, collection, fetched); err != nil {
		return nil, err
	}
	f.setDegraded(false)
	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicRecords,
		Collection: collection,
		EventType:  "LOAD",
		Data:       len(fetched),
	})
	return snapshot(cs.records), nil
}

// Get returns one record by id.
// Returns NOT_FOUND when the id is absent from the loaded collection.
func (f *Facade) Get(ctx context.Context, collection, id string) (record.Fields, error) {
	records, err := f.Load(ctx, collection, false)
	if err != nil {
		return nil, err
	}
	if i := record.IndexByID(records, id); i >= 0 {
		return records[i].Clone(), nil
	}
	return nil, errs.NotFound(collection, id)
}

// Save writes a record: local cache guaranteed, remote best-effort.
//
// The record is validated at this boundary, given an id and fresh
// updated_at, and upserted into the canonical collection. A remote
// failure never surfaces to the caller; it flips the facade into
// degraded mode and the result carries Synced=false. Saving an id
// clears any tombstone for it - an explicit local write is a deliberate
// re-creation.
func (f *Facade) Save(ctx context.Context, collection string, fields record.Fields) (SaveResult, error) {
	if err := record.Validate(collection, fields); err != nil {
		return SaveResult{}, err
	}
	cs, err := f.state(collection)
	if err != nil {
		return SaveResult{}, err
	}

	saved := record.EnsureMeta(fields, f.idgen, f.now())
	id := saved.ID()

	cs.mu.Lock()
	if err := f.hydrateLocked(ctx, collection, cs); err != nil {
		cs.mu.Unlock()
		return SaveResult{}, err
	}
	f.tombs.Clear(collection, id)
	eventType := string(remote.EventInsert)
	if i := record.IndexByID(cs.records, id); i >= 0 {
		cs.records[i] = saved
		eventType = string(remote.EventUpdate)
	} else {
		cs.records = append(cs.records, saved)
	}
	err = f.cache.PutCollection(ctx, collection, cs.records)
	cs.mu.Unlock()
	if err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{Cached: true}
	if !f.Degraded() {
		if err := f.remote.Upsert(ctx, collection, saved); err != nil {
			f.logger.Warn("remote upsert failed, record held locally",
				"collection", collection, "id", id, "error", err)
			f.setDegraded(true)
			f.reportError(collection, err)
		} else {
			res.Synced = true
		}
	}

	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicRecords,
		Collection: collection,
		EventType:  eventType,
		Data:       saved,
	})
	return res, nil
}

// Delete removes a record: guaranteed locally, best-effort remotely.
//
// The id is registered in the collection's tombstone set so a stale or
// out-of-order delta cannot resurrect it. Returns NOT_FOUND when the id
// is not in the loaded collection.
func (f *Facade) Delete(ctx context.Context, collection, id string) error {
	cs, err := f.state(collection)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	if err := f.hydrateLocked(ctx, collection, cs); err != nil {
		cs.mu.Unlock()
		return err
	}
	i := record.IndexByID(cs.records, id)
	if i < 0 {
		cs.mu.Unlock()
		return errs.NotFound(collection, id)
	}
	removed := cs.records[i]
	cs.records = append(cs.records[:i], cs.records[i+1:]...)
	f.tombs.Add(collection, id)
	err = f.cache.PutCollection(ctx, collection, cs.records)
	cs.mu.Unlock()
	if err != nil {
		return err
	}

	if !f.Degraded() {
		if err := f.remote.Delete(ctx, collection, id); err != nil {
			f.logger.Warn("remote delete failed, tombstone holds",
				"collection", collection, "id", id, "error", err)
			f.setDegraded(true)
			f.reportError(collection, err)
		}
	}

	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicRecords,
		Collection: collection,
		EventType:  string(remote.EventDelete),
		Data:       removed,
	})
	return nil
}

// ApplyDelta applies one realtime change event to the canonical
// collection and the cache.
//
// INSERT/UPDATE upsert by id, shallow-merging unknown fields into any
// existing local copy; DELETE removes by id and tombstones it. Deltas
// for tombstoned ids are suppressed (delete wins) and logged as
// CONFLICT_AMBIGUITY. Idempotent: applying the same delta twice leaves
// the same state.
func (f *Facade) ApplyDelta(ctx context.Context, d remote.Delta) error {
	cs, err := f.state(d.Collection)
	if err != nil {
		return err
	}
	id := d.ID()
	if id == "" {
		return nil
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := f.hydrateLocked(ctx, d.Collection, cs); err != nil {
		return err
	}

	switch d.Type {
	case remote.EventInsert, remote.EventUpdate:
		if f.tombs.Has(d.Collection, id) {
			amb := errs.ConflictAmbiguity(d.Collection, id)
			f.logger.Warn("suppressing delta for tombstoned id; may mask a re-creation",
				"collection", d.Collection, "id", id, "eventType", string(d.Type))
			f.reportError(d.Collection, amb)
			return nil
		}
		if i := record.IndexByID(cs.records, id); i >= 0 {
			cs.records[i] = cs.records[i].Merge(d.New)
		} else {
			cs.records = append(cs.records, d.New.Clone())
		}
	case remote.EventDelete:
		if i := record.IndexByID(cs.records, id); i >= 0 {
			cs.records = append(cs.records[:i], cs.records[i+1:]...)
		}
		f.tombs.Add(d.Collection, id)
	default:
		return nil
	}

	if err := f.cache.PutCollection(ctx, d.Collection, cs.records); err != nil {
		return err
	}

	data := d.New
	if data == nil {
		data = d.Old
	}
	f.bus.Publish(pubsub.Event{
		Topic:      pubsub.TopicRecords,
		Collection: d.Collection,
		EventType:  string(d.Type),
		Data:       data,
	})
	return nil
}
