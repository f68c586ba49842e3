package grade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkminsu/janbu/internal/facade"
	"github.com/parkminsu/janbu/internal/notify"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/record"
)

// mockStore implements Store over in-memory slices.
type mockStore struct {
	customers []record.Fields
	orders    []record.Fields
	saved     []record.Fields
}

func (m *mockStore) Load(ctx context.Context, collection string, forceRefresh bool) ([]record.Fields, error) {
	switch collection {
	case record.Customers:
		return m.customers, nil
	case record.Orders:
		return m.orders, nil
	}
	return nil, nil
}

func (m *mockStore) Get(ctx context.Context, collection, id string) (record.Fields, error) {
	for _, c := range m.customers {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, assert.AnError
}

func (m *mockStore) Save(ctx context.Context, collection string, fields record.Fields) (facade.SaveResult, error) {
	m.saved = append(m.saved, fields)
	for i, c := range m.customers {
		if c.ID() == fields.ID() {
			m.customers[i] = fields
		}
	}
	return facade.SaveResult{Cached: true, Synced: true}, nil
}

// mockNotifier records dispatched events.
type mockNotifier struct {
	events []notify.Event
}

func (m *mockNotifier) Notify(ctx context.Context, customer record.Fields, ev notify.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func deliveredOrder(id, customerID string, amount float64) record.Fields {
	return record.Fields{
		"id":           id,
		"customer_id":  customerID,
		"order_status": string(record.StatusDelivered),
		"total_amount": amount,
	}
}

func TestRecalculateCustomerSumsDeliveredOnly(t *testing.T) {
	store := &mockStore{
		customers: []record.Fields{{"id": "C1", "grade": "basic"}},
		orders: []record.Fields{
			deliveredOrder("O1", "C1", 80000),
			deliveredOrder("O2", "C1", 40000),
			{"id": "O3", "customer_id": "C1", "order_status": "shipped", "total_amount": float64(900000)},
			deliveredOrder("O4", "other", 900000),
		},
	}
	r := NewRecalculator(store, testThresholds, nil, pubsub.NewBus(), nil)

	require.NoError(t, r.RecalculateCustomer(context.Background(), "C1"))

	require.Len(t, store.saved, 1)
	assert.Equal(t, string(TierBronze), store.saved[0].Str("grade"),
		"120000 delivered total reaches bronze; shipped and foreign orders excluded")
}

func TestRecalculateAllReportsOnlyUpgrades(t *testing.T) {
	store := &mockStore{
		customers: []record.Fields{
			{"id": "up", "grade": "basic"},
			{"id": "down", "grade": "vip"},
			{"id": "flat", "grade": "basic"},
		},
		orders: []record.Fields{
			deliveredOrder("O1", "up", 400000),   // basic -> silver
			deliveredOrder("O2", "down", 150000), // vip -> bronze
		},
	}
	bus := pubsub.NewBus()
	events, cancel := bus.Subscribe(pubsub.TopicGrades, 8)
	defer cancel()
	notifier := &mockNotifier{}
	r := NewRecalculator(store, testThresholds, notifier, bus, nil)

	require.NoError(t, r.RecalculateAll(context.Background()))

	// Both changes persisted.
	require.Len(t, store.saved, 2)
	byID := map[string]string{}
	for _, s := range store.saved {
		byID[s.ID()] = s.Str("grade")
	}
	assert.Equal(t, string(TierSilver), byID["up"])
	assert.Equal(t, string(TierBronze), byID["down"], "downgrade persisted silently")

	// Only the upgrade is reported.
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventGradeUpgrade, notifier.events[0].Type)
	assert.Equal(t, string(TierSilver), notifier.events[0].NewGrade)

	select {
	case ev := <-events:
		data := ev.Data.(map[string]string)
		assert.Equal(t, "up", data["customer_id"])
	default:
		t.Fatal("expected one grade event on the bus")
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra grade event: %+v", ev)
	default:
	}
}

func TestRecalculateAllFreshCustomersStayQuiet(t *testing.T) {
	store := &mockStore{
		customers: []record.Fields{
			{"id": "new-basic"},  // no grade yet, no delivered orders
			{"id": "new-bronze"}, // no grade yet, enough for bronze
		},
		orders: []record.Fields{deliveredOrder("O1", "new-bronze", 150000)},
	}
	notifier := &mockNotifier{}
	r := NewRecalculator(store, testThresholds, notifier, pubsub.NewBus(), nil)

	require.NoError(t, r.RecalculateAll(context.Background()))

	// Both customers get a grade written.
	require.Len(t, store.saved, 2)
	byID := map[string]string{}
	for _, s := range store.saved {
		byID[s.ID()] = s.Str("grade")
	}
	assert.Equal(t, string(TierBasic), byID["new-basic"])
	assert.Equal(t, string(TierBronze), byID["new-bronze"])

	// Only the genuine tier gain notifies.
	require.Len(t, notifier.events, 1)
	assert.Equal(t, string(TierBronze), notifier.events[0].NewGrade)
}

func TestRecalculateAllIdempotent(t *testing.T) {
	store := &mockStore{
		customers: []record.Fields{{"id": "C1", "grade": "basic"}},
		orders:    []record.Fields{deliveredOrder("O1", "C1", 400000)},
	}
	r := NewRecalculator(store, testThresholds, nil, pubsub.NewBus(), nil)

	require.NoError(t, r.RecalculateAll(context.Background()))
	require.NoError(t, r.RecalculateAll(context.Background()))

	assert.Len(t, store.saved, 1, "second run finds the grade already correct")
}
