package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureMetaAssignsIDAndTimestamps(t *testing.T) {
	gen := NewFixedIDGenerator("id-1")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out := EnsureMeta(Fields{"name": "Kim"}, gen, now)

	assert.Equal(t, "id-1", out.ID())
	assert.Equal(t, "2026-03-01T12:00:00Z", out.Str(FieldCreatedAt))
	assert.Equal(t, "2026-03-01T12:00:00Z", out.Str(FieldUpdatedAt))
}

func TestEnsureMetaKeepsExistingIDAndCreatedAt(t *testing.T) {
	gen := NewFixedIDGenerator() // must not be consulted
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	in := Fields{
		FieldID:        "existing",
		FieldCreatedAt: "2026-01-01T00:00:00Z",
		FieldUpdatedAt: "2026-01-01T00:00:00Z",
	}
	out := EnsureMeta(in, gen, now)

	assert.Equal(t, "existing", out.ID())
	assert.Equal(t, "2026-01-01T00:00:00Z", out.Str(FieldCreatedAt))
	assert.Equal(t, "2026-03-02T09:30:00Z", out.Str(FieldUpdatedAt), "every mutation refreshes updated_at")
	// Input untouched.
	assert.Equal(t, "2026-01-01T00:00:00Z", in.Str(FieldUpdatedAt))
}

func TestMergeShallowMergesFields(t *testing.T) {
	local := Fields{"id": "1", "name": "old", "memo": "keep me"}
	incoming := Fields{"id": "1", "name": "new", "extra_field": "adopted"}

	out := local.Merge(incoming)

	assert.Equal(t, "new", out.Str("name"))
	assert.Equal(t, "keep me", out.Str("memo"), "fields only the local copy carries survive")
	assert.Equal(t, "adopted", out.Str("extra_field"), "unknown fields are adopted")
	assert.Equal(t, "old", local.Str("name"), "merge does not mutate the receiver")
}

func TestNumHandlesJSONAndLocalValues(t *testing.T) {
	f := Fields{"a": float64(3.5), "b": 2, "c": int64(7), "d": "nan"}
	assert.Equal(t, 3.5, f.Num("a"))
	assert.Equal(t, 2.0, f.Num("b"))
	assert.Equal(t, 7.0, f.Num("c"))
	assert.Equal(t, 0.0, f.Num("d"))
	assert.Equal(t, 0.0, f.Num("missing"))
}

func TestIndexByID(t *testing.T) {
	records := []Fields{{"id": "a"}, {"id": "b"}}
	assert.Equal(t, 1, IndexByID(records, "b"))
	assert.Equal(t, -1, IndexByID(records, "missing"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		fields     Fields
		wantErr    bool
	}{
		{"valid order", Orders, Fields{"id": "1", "order_status": "received"}, false},
		{"valid without id", Customers, Fields{"name": "Kim"}, false},
		{"unknown collection", "widgets", Fields{"id": "1"}, true},
		{"nil record", Orders, nil, true},
		{"non-string id", Orders, Fields{"id": 42}, true},
		{"invalid order status", Orders, Fields{"id": "1", "order_status": "lost"}, true},
		{"invalid timestamp", Orders, Fields{"id": "1", "updated_at": "yesterday"}, true},
		{"unknown extra fields pass", Products, Fields{"id": "1", "totally_new": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.collection, tt.fields)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDecodeOrderRoundTrip(t *testing.T) {
	f := Fields{
		"id":           "O1",
		"order_number": "2026-0001",
		"customer_id":  "C1",
		"order_status": "shipped",
		"total_amount": float64(45000),
	}
	o, err := DecodeOrder(f)
	require.NoError(t, err)
	assert.Equal(t, "O1", o.ID)
	assert.Equal(t, StatusShipped, o.OrderStatus)
	assert.Equal(t, 45000.0, o.TotalAmount)

	back, err := Encode(o)
	require.NoError(t, err)
	assert.Equal(t, "2026-0001", back.Str("order_number"))
}
