package deltas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTombstonesAddHasClear(t *testing.T) {
	tombs := NewTombstones()

	assert.False(t, tombs.Has("orders", "O1"))

	tombs.Add("orders", "O1")
	assert.True(t, tombs.Has("orders", "O1"))
	assert.False(t, tombs.Has("customers", "O1"), "tombstones are per collection")

	tombs.Clear("orders", "O1")
	assert.False(t, tombs.Has("orders", "O1"), "explicit re-creation clears the tombstone")
}

func TestTombstonesIgnoreEmptyID(t *testing.T) {
	tombs := NewTombstones()
	tombs.Add("orders", "")
	assert.Empty(t, tombs.IDs("orders"))
}

func TestTombstonesIDsSnapshot(t *testing.T) {
	tombs := NewTombstones()
	tombs.Add("orders", "O1")
	tombs.Add("orders", "O2")

	snap := tombs.IDs("orders")
	assert.Len(t, snap, 2)

	// Mutating the snapshot must not affect the set.
	delete(snap, "O1")
	assert.True(t, tombs.Has("orders", "O1"))
}
