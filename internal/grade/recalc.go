package grade

import (
	"context"
	"log/slog"

	"github.com/parkminsu/janbu/internal/facade"
	"github.com/parkminsu/janbu/internal/notify"
	"github.com/parkminsu/janbu/internal/pubsub"
	"github.com/parkminsu/janbu/internal/record"
)

// FieldGrade is the derived grade field on customer records.
const FieldGrade = "grade"

// Store is the slice of the storage facade the recalculator needs.
type Store interface {
	Load(ctx context.Context, collection string, forceRefresh bool) ([]record.Fields, error)
	Get(ctx context.Context, collection, id string) (record.Fields, error)
	Save(ctx context.Context, collection string, fields record.Fields) (facade.SaveResult, error)
}

// Recalculator recomputes derived customer grades from delivered
// orders.
//
// Grades are never hand-authoritative: whatever a customer record
// carries is overwritten by the computed tier. Upgrades (strict rank
// increase) are reported to the notification layer and the grades
// topic; downgrades are persisted silently. The silent-downgrade policy
// is deliberate and pinned by tests.
type Recalculator struct {
	store      Store
	thresholds Thresholds
	notifier   notify.Notifier
	bus        *pubsub.Bus
	logger     *slog.Logger
}

// NewRecalculator creates a recalculator with the configured
// thresholds. notifier may be nil to skip upgrade notifications.
func NewRecalculator(store Store, thresholds Thresholds, notifier notify.Notifier, bus *pubsub.Bus, logger *slog.Logger) *Recalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recalculator{
		store:      store,
		thresholds: thresholds,
		notifier:   notifier,
		bus:        bus,
		logger:     logger,
	}
}

// deliveredTotal sums total_amount over the customer's delivered orders.
func deliveredTotal(orders []record.Fields, customerID string) float64 {
	var total float64
	for _, o := range orders {
		if o.Str("customer_id") != customerID {
			continue
		}
		if record.Status(o.Str(record.FieldOrderStatus)) != record.StatusDelivered {
			continue
		}
		total += o.Num("total_amount")
	}
	return total
}

// RecalculateCustomer recomputes and persists one customer's grade.
func (r *Recalculator) RecalculateCustomer(ctx context.Context, customerID string) error {
	customer, err := r.store.Get(ctx, record.Customers, customerID)
	if err != nil {
		return err
	}
	orders, err := r.store.Load(ctx, record.Orders, false)
	if err != nil {
		return err
	}
	return r.apply(ctx, customer, orders)
}

// RecalculateAll recomputes every customer's grade.
//
// Every change is persisted, but only strict tier-rank increases are
// reported as upgrade events.
func (r *Recalculator) RecalculateAll(ctx context.Context) error {
	customers, err := r.store.Load(ctx, record.Customers, false)
	if err != nil {
		return err
	}
	orders, err := r.store.Load(ctx, record.Orders, false)
	if err != nil {
		return err
	}
	for _, c := range customers {
		if err := r.apply(ctx, c, orders); err != nil {
			r.logger.Warn("grade recomputation failed", "customer", c.ID(), "error", err)
		}
	}
	return nil
}

// apply computes the tier, persists a change, and reports upgrades.
func (r *Recalculator) apply(ctx context.Context, customer record.Fields, orders []record.Fields) error {
	customerID := customer.ID()
	oldTier := Tier(customer.Str(FieldGrade))
	newTier := Compute(deliveredTotal(orders, customerID), r.thresholds)
	if newTier == oldTier {
		return nil
	}

	updated := customer.Clone()
	updated[FieldGrade] = string(newTier)
	if _, err := r.store.Save(ctx, record.Customers, updated); err != nil {
		return err
	}

	if !IsUpgrade(oldTier, newTier) {
		// Downgrades persist silently.
		r.logger.Debug("grade changed without notification",
			"customer", customerID, "from", string(oldTier), "to", string(newTier))
		return nil
	}

	r.logger.Info("customer upgraded",
		"customer", customerID, "from", string(oldTier), "to", string(newTier))
	if r.bus != nil {
		r.bus.Publish(pubsub.Event{
			Topic:      pubsub.TopicGrades,
			Collection: record.Customers,
			EventType:  notify.EventGradeUpgrade,
			Data:       map[string]string{"customer_id": customerID, "from": string(oldTier), "to": string(newTier)},
		})
	}
	if r.notifier != nil {
		ev := notify.Event{Type: notify.EventGradeUpgrade, OldGrade: string(oldTier), NewGrade: string(newTier)}
		if err := r.notifier.Notify(ctx, updated, ev); err != nil {
			r.logger.Warn("upgrade notification failed", "customer", customerID, "error", err)
		}
	}
	return nil
}
