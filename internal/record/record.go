// Package record defines the entity types carried through the sync core.
//
// Records cross component boundaries as a Fields envelope (a flat JSON
// object) so realtime deltas can shallow-merge fields the local build
// does not know about yet. Typed views (Order, Customer, ...) are decoded
// at the storage facade boundary, which is also where validation happens.
package record

import (
	"time"
)

// Collection names. Every record belongs to exactly one collection and
// ids are unique within it.
const (
	Orders     = "orders"
	Customers  = "customers"
	Products   = "products"
	Categories = "categories"
	Waitlist   = "waitlist"
	Channels   = "channels"
)

// Collections lists every known collection in cache-key order.
var Collections = []string{Orders, Customers, Products, Categories, Waitlist, Channels}

// KnownCollection reports whether name is a registered collection.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Well-known field names shared by all entity types.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Fields is one record as a flat JSON object.
//
// Values are the types encoding/json produces: string, float64, bool,
// nil, []any, map[string]any. Components never mutate a Fields they did
// not create; use Clone before writing.
type Fields map[string]any

// ID returns the record id, or "" if unset.
func (f Fields) ID() string {
	return f.str(FieldID)
}

// str returns the named field as a string, or "" if absent or not a string.
func (f Fields) str(name string) string {
	s, _ := f[name].(string)
	return s
}

// Str returns the named field as a string, or "" if absent or not a string.
func (f Fields) Str(name string) string {
	return f.str(name)
}

// Num returns the named field as a float64, or 0 if absent.
// Handles both float64 (JSON decode) and int (local construction).
func (f Fields) Num(name string) float64 {
	switch v := f[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Clone returns a shallow copy of f.
//
// Nested values are shared; the sync core treats records as flat objects
// and never mutates nested values in place.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a copy of f with every field from other shallow-merged
// on top. This is the delta-application rule: fields the incoming record
// carries win, fields only the local copy carries survive.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// EnsureMeta assigns an id (when absent) and refreshes timestamps.
//
// created_at is set only when absent; updated_at is refreshed on every
// call because every mutation goes through here. Returns a copy; the
// input is not modified.
func EnsureMeta(f Fields, gen IDGenerator, now time.Time) Fields {
	out := f.Clone()
	if out.ID() == "" {
		out[FieldID] = gen.Generate()
	}
	ts := now.UTC().Format(time.RFC3339)
	if out.str(FieldCreatedAt) == "" {
		out[FieldCreatedAt] = ts
	}
	out[FieldUpdatedAt] = ts
	return out
}

// IndexByID returns the position of id in records, or -1.
func IndexByID(records []Fields, id string) int {
	for i, r := range records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
