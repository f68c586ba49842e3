// Package merge reconciles an independently evolved local collection
// with its remote counterpart into one canonical collection.
//
// Policy: local wins. The local collection defines the base and the
// order; a remote record that matches a local one (by id, or by the
// collection's secondary identity key) is discarded wholesale - no
// field-level reconciliation is attempted. Concurrent edits to
// different fields on another device are lost by design; this is a
// documented simplification, not an oversight.
package merge

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/parkminsu/janbu/internal/record"
)

// Result describes one reconciliation run.
type Result struct {
	// Merged is the canonical collection: every local record in local
	// order, then every adopted remote-only record in remote order.
	Merged []record.Fields

	// Kept counts local records that shadowed a matching remote record.
	Kept int

	// Adopted counts remote-only records appended to the collection.
	Adopted int

	// Suppressed counts remote records dropped because their id is
	// tombstoned.
	Suppressed int
}

// secondaryKeys maps a collection to the field that identifies a record
// when ids diverge (e.g. the same customer created on two devices).
// Collections not listed match on id only.
var secondaryKeys = map[string]string{
	record.Customers: "phone",
	record.Orders:    "order_number",
	record.Products:  "name",
}

// identityKey extracts and canonicalizes the secondary key value.
// Product names are NFC-normalized and case-folded so "Café" and "café"
// entered on different devices still identify the same product.
func identityKey(collection string, f record.Fields) string {
	field, ok := secondaryKeys[collection]
	if !ok {
		return ""
	}
	v := f.Str(field)
	if v == "" {
		return ""
	}
	if collection == record.Products {
		v = strings.ToLower(norm.NFC.String(v))
	}
	return v
}

// Reconcile merges remote into local for one collection.
//
// Matching is two-phase so that an id match always wins over a
// secondary-key match, regardless of the order remote records arrive
// in: first every remote record is matched by exact id, then the
// remainder by the collection's secondary key. Each local record
// resolves at most one remote record; a second remote record carrying
// the same identity finds no match left and is adopted as-is
// (duplicate identities within one collection are not deduplicated).
//
// Remote-only records whose id is in tombstoned are suppressed: the
// local delete takes precedence over the stale remote copy.
//
// Deterministic: identical inputs produce an identical Result.
func Reconcile(collection string, local, remote []record.Fields, tombstoned map[string]struct{}) Result {
	res := Result{Merged: make([]record.Fields, 0, len(local)+len(remote))}
	res.Merged = append(res.Merged, local...)

	// Local lookup tables. Secondary keys map to the first local record
	// carrying them; later duplicates never match.
	byID := make(map[string]int, len(local))
	byKey := make(map[string]int, len(local))
	for i, l := range local {
		if id := l.ID(); id != "" {
			if _, dup := byID[id]; !dup {
				byID[id] = i
			}
		}
		if key := identityKey(collection, l); key != "" {
			if _, dup := byKey[key]; !dup {
				byKey[key] = i
			}
		}
	}

	consumed := make(map[int]bool, len(local))
	matched := make([]bool, len(remote))

	// Phase 1: exact id matches.
	for i, r := range remote {
		if id := r.ID(); id != "" {
			if li, ok := byID[id]; ok && !consumed[li] {
				consumed[li] = true
				matched[i] = true
				res.Kept++
			}
		}
	}

	// Phase 2: secondary-key matches among the remainder.
	for i, r := range remote {
		if matched[i] {
			continue
		}
		key := identityKey(collection, r)
		if key == "" {
			continue
		}
		if li, ok := byKey[key]; ok && !consumed[li] {
			consumed[li] = true
			matched[i] = true
			res.Kept++
		}
	}

	// Adopt unmatched remote records, unless tombstoned.
	for i, r := range remote {
		if matched[i] {
			continue
		}
		if _, dead := tombstoned[r.ID()]; dead {
			res.Suppressed++
			continue
		}
		res.Merged = append(res.Merged, r)
		res.Adopted++
	}

	return res
}
